// Package firecrawl scrapes trending sources into markdown for the daily
// briefing.
package firecrawl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultBaseURL = "https://api.firecrawl.dev"

	// maxExcerpt bounds how much scraped markdown reaches the LLM prompt.
	maxExcerpt = 1000
)

type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{},
	}
}

func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

type scrapeRequest struct {
	URL     string   `json:"url"`
	Formats []string `json:"formats"`
}

type scrapeResponse struct {
	Markdown string `json:"markdown"`
}

// Scrape fetches a page as markdown, truncated to the excerpt limit.
func (c *Client) Scrape(ctx context.Context, url string) (string, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return "", fmt.Errorf("firecrawl: api key is not configured")
	}
	body, err := json.Marshal(scrapeRequest{URL: url, Formats: []string{"markdown"}})
	if err != nil {
		return "", fmt.Errorf("firecrawl: marshal scrape request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v0/scrape", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("firecrawl: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("firecrawl: scrape %s: %w", url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("firecrawl: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("firecrawl: api error (%d): %s", resp.StatusCode, string(respBody))
	}

	var scraped scrapeResponse
	if err := json.Unmarshal(respBody, &scraped); err != nil {
		return "", fmt.Errorf("firecrawl: decode response: %w", err)
	}
	markdown := scraped.Markdown
	if len(markdown) > maxExcerpt {
		markdown = markdown[:maxExcerpt]
	}
	return markdown, nil
}
