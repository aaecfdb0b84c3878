// Package linear creates follow-up issues for enterprise leads via the
// Linear GraphQL API.
package linear

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultBaseURL = "https://api.linear.app/graphql"

const createIssueMutation = `mutation CreateIssue($title: String!, $description: String!, $teamId: String!) {
  issueCreate(input: {title: $title, description: $description, teamId: $teamId, priority: 1}) {
    success
    issue { id title }
  }
}`

type Client struct {
	apiKey  string
	teamID  string
	baseURL string
	client  *http.Client
}

func NewClient(apiKey, teamID string) *Client {
	return &Client{
		apiKey:  apiKey,
		teamID:  teamID,
		baseURL: defaultBaseURL,
		client:  &http.Client{},
	}
}

func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type createIssueResponse struct {
	Data struct {
		IssueCreate struct {
			Success bool `json:"success"`
			Issue   struct {
				ID string `json:"id"`
			} `json:"issue"`
		} `json:"issueCreate"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// CreateIssue opens a priority follow-up issue and returns its id.
func (c *Client) CreateIssue(ctx context.Context, title, description string) (string, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return "", fmt.Errorf("linear: api key is not configured")
	}
	if strings.TrimSpace(c.teamID) == "" {
		return "", fmt.Errorf("linear: team id is not configured")
	}
	body, err := json.Marshal(graphqlRequest{
		Query: createIssueMutation,
		Variables: map[string]any{
			"title":       title,
			"description": description,
			"teamId":      c.teamID,
		},
	})
	if err != nil {
		return "", fmt.Errorf("linear: marshal mutation: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("linear: build request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("linear: create issue: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("linear: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("linear: api error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result createIssueResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("linear: decode response: %w", err)
	}
	if len(result.Errors) > 0 {
		return "", fmt.Errorf("linear: graphql error: %s", result.Errors[0].Message)
	}
	if !result.Data.IssueCreate.Success {
		return "", fmt.Errorf("linear: issue creation was not successful")
	}
	return result.Data.IssueCreate.Issue.ID, nil
}
