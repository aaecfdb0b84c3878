// Package webflow publishes briefing articles to the site blog collection.
package webflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultBaseURL = "https://api.webflow.com/v2"

type Client struct {
	apiKey       string
	collectionID string
	baseURL      string
	client       *http.Client
}

func NewClient(apiKey, collectionID string) *Client {
	return &Client{
		apiKey:       apiKey,
		collectionID: collectionID,
		baseURL:      defaultBaseURL,
		client:       &http.Client{},
	}
}

func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

type itemRequest struct {
	IsDraft   bool           `json:"isDraft"`
	FieldData map[string]any `json:"fieldData"`
}

type itemResponse struct {
	ID string `json:"id"`
}

// PublishPost creates a live blog item and returns its id.
func (c *Client) PublishPost(ctx context.Context, title, article string) (string, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return "", fmt.Errorf("webflow: api key is not configured")
	}
	if strings.TrimSpace(c.collectionID) == "" {
		return "", fmt.Errorf("webflow: collection id is not configured")
	}
	body, err := json.Marshal(itemRequest{
		FieldData: map[string]any{
			"name":      title,
			"post-body": article,
		},
	})
	if err != nil {
		return "", fmt.Errorf("webflow: marshal item: %w", err)
	}
	url := fmt.Sprintf("%s/collections/%s/items/live", c.baseURL, c.collectionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("webflow: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("webflow: publish post: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("webflow: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("webflow: api error (%d): %s", resp.StatusCode, string(respBody))
	}

	var item itemResponse
	if err := json.Unmarshal(respBody, &item); err != nil {
		return "", fmt.Errorf("webflow: decode response: %w", err)
	}
	return item.ID, nil
}
