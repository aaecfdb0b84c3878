// Package invideo renders short briefing video clips.
package invideo

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
	defaultBaseURL = "https://api.invideo.io/v1"

	// maxScript bounds the script length for a short clip.
	maxScript    = 500
	clipDuration = 45
	clipTemplate = "news_briefing"
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

type renderRequest struct {
	Script   string `json:"script"`
	Duration int    `json:"duration"`
	Template string `json:"template"`
}

type renderResponse struct {
	VideoURL string `json:"video_url"`
}

// GenerateClip renders a short clip from the script and returns its URL.
func (c *Client) GenerateClip(ctx context.Context, script string) (string, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return "", fmt.Errorf("invideo: api key is not configured")
	}
	if len(script) > maxScript {
		script = script[:maxScript]
	}
	body, err := json.Marshal(renderRequest{
		Script:   script,
		Duration: clipDuration,
		Template: clipTemplate,
	})
	if err != nil {
		return "", fmt.Errorf("invideo: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/videos", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("invideo: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("invideo: render clip: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("invideo: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("invideo: api error (%d): %s", resp.StatusCode, string(respBody))
	}

	var rendered renderResponse
	if err := json.Unmarshal(respBody, &rendered); err != nil {
		return "", fmt.Errorf("invideo: decode response: %w", err)
	}
	return rendered.VideoURL, nil
}
