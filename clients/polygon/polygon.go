// Package polygon fetches US equity market movers from Polygon.io for the
// daily briefing.
package polygon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultBaseURL = "https://api.polygon.io"
	moversLimit    = 5
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

type Ticker struct {
	Symbol    string  `json:"ticker"`
	ChangePct float64 `json:"todaysChangePerc"`
}

type snapshotResponse struct {
	Tickers []Ticker `json:"tickers"`
	Status  string   `json:"status"`
}

// Snapshot is the market summary fed into briefing generation.
type Snapshot struct {
	Gainers []Ticker
	Losers  []Ticker
}

func (c *Client) MarketSnapshot(ctx context.Context) (Snapshot, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return Snapshot{}, fmt.Errorf("polygon: api key is not configured")
	}
	gainers, err := c.movers(ctx, "gainers")
	if err != nil {
		return Snapshot{}, err
	}
	losers, err := c.movers(ctx, "losers")
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Gainers: gainers, Losers: losers}, nil
}

func (c *Client) movers(ctx context.Context, direction string) ([]Ticker, error) {
	url := fmt.Sprintf("%s/v2/snapshot/locale/us/markets/stocks/%s?apiKey=%s", c.baseURL, direction, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("polygon: build %s request: %w", direction, err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("polygon: fetch %s: %w", direction, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("polygon: read %s response: %w", direction, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("polygon: api error (%d): %s", resp.StatusCode, string(body))
	}

	var snapshot snapshotResponse
	if err := json.Unmarshal(body, &snapshot); err != nil {
		return nil, fmt.Errorf("polygon: decode %s response: %w", direction, err)
	}
	tickers := snapshot.Tickers
	if len(tickers) > moversLimit {
		tickers = tickers[:moversLimit]
	}
	return tickers, nil
}
