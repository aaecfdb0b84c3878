// Package notion is a thin client for the two Notion surfaces this service
// touches: buyer workspace pages created during fulfillment and CRM records
// created during lead intake.
package notion

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
	defaultBaseURL = "https://api.notion.com/v1"
	notionVersion  = "2022-06-28"
)

type Client struct {
	apiKey        string
	crmDatabaseID string
	baseURL       string
	client        *http.Client
}

func NewClient(apiKey, crmDatabaseID string) *Client {
	return &Client{
		apiKey:        apiKey,
		crmDatabaseID: crmDatabaseID,
		baseURL:       defaultBaseURL,
		client:        &http.Client{},
	}
}

// WithBaseURL overrides the API endpoint. Test hook.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

type pageResponse struct {
	ID string `json:"id"`
}

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// CreateWorkspace provisions a buyer workspace page and returns its id.
func (c *Client) CreateWorkspace(ctx context.Context, buyerEmail, sku string) (string, error) {
	payload := map[string]any{
		"parent": map[string]any{"database_id": c.crmDatabaseID},
		"properties": map[string]any{
			"Name": map[string]any{
				"title": []map[string]any{
					{"text": map[string]any{"content": fmt.Sprintf("%s workspace for %s", sku, buyerEmail)}},
				},
			},
			"Email": map[string]any{"email": buyerEmail},
			"SKU": map[string]any{
				"rich_text": []map[string]any{
					{"text": map[string]any{"content": sku}},
				},
			},
		},
	}
	return c.createPage(ctx, payload)
}

// CRMRecord is the lead projection stored in the Notion CRM database.
type CRMRecord struct {
	Email   string
	Name    string
	Company string
	Role    string
	Source  string
	Tags    []string
}

func (c *Client) CreateCRMRecord(ctx context.Context, record CRMRecord) (string, error) {
	name := record.Name
	if strings.TrimSpace(name) == "" {
		name = "Unknown"
	}
	tags := make([]map[string]any, 0, len(record.Tags))
	for _, tag := range record.Tags {
		tags = append(tags, map[string]any{"name": tag})
	}
	payload := map[string]any{
		"parent": map[string]any{"database_id": c.crmDatabaseID},
		"properties": map[string]any{
			"Email": map[string]any{"email": record.Email},
			"Name": map[string]any{
				"title": []map[string]any{
					{"text": map[string]any{"content": name}},
				},
			},
			"Company": map[string]any{
				"rich_text": []map[string]any{
					{"text": map[string]any{"content": record.Company}},
				},
			},
			"Role": map[string]any{
				"rich_text": []map[string]any{
					{"text": map[string]any{"content": record.Role}},
				},
			},
			"Source": map[string]any{"select": map[string]any{"name": record.Source}},
			"Tags":   map[string]any{"multi_select": tags},
		},
	}
	return c.createPage(ctx, payload)
}

func (c *Client) createPage(ctx context.Context, payload map[string]any) (string, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return "", fmt.Errorf("notion: api key is not configured")
	}
	if strings.TrimSpace(c.crmDatabaseID) == "" {
		return "", fmt.Errorf("notion: database id is not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("notion: marshal page payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("notion: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Notion-Version", notionVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("notion: create page: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("notion: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var notionErr apiError
		if json.Unmarshal(respBody, &notionErr) == nil && notionErr.Message != "" {
			return "", fmt.Errorf("notion: api error (%d): %s", resp.StatusCode, notionErr.Message)
		}
		return "", fmt.Errorf("notion: api error (%d): %s", resp.StatusCode, string(respBody))
	}

	var page pageResponse
	if err := json.Unmarshal(respBody, &page); err != nil {
		return "", fmt.Errorf("notion: decode response: %w", err)
	}
	return page.ID, nil
}
