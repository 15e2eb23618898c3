// Package kalshi ingests markets from the Kalshi exchange API. Only the
// public listing endpoints are used; no authentication is required.
package kalshi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/oddslens/engine/internal/domain"
)

const (
	idPrefix = "kalshi_"

	// Cursor pagination: at most 3 pages of 200 events per fetch.
	pageSize = 200
	maxPages = 3

	maxMarketsPerEvent = 3
)

// Client is the REST ingestor for the Kalshi events API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Kalshi ingestor.
//
// baseURL is the API root, e.g. "https://api.elections.kalshi.com/trade-api/v2".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Venue implements venue.Ingestor.
func (c *Client) Venue() domain.Venue { return domain.VenueKalshi }

// Prefix implements venue.Ingestor.
func (c *Client) Prefix() string { return idPrefix }

// Fetch walks the cursor-paginated open-events listing and normalizes every
// nested market, keeping at most the top-3 sub-markets per event by implied
// probability.
func (c *Client) Fetch(ctx context.Context) ([]domain.Market, error) {
	var out []domain.Market
	cursor := ""

	for page := 0; page < maxPages; page++ {
		events, next, err := c.getEvents(ctx, cursor)
		if err != nil {
			return nil, fmt.Errorf("kalshi: get events page %d: %w", page, err)
		}

		for i := range events {
			out = append(out, eventMarkets(&events[i])...)
		}

		if next == "" || len(events) == 0 {
			break
		}
		cursor = next
	}

	return out, nil
}

func eventMarkets(ev *APIEvent) []domain.Market {
	markets := make([]domain.Market, 0, len(ev.Markets))
	for i := range ev.Markets {
		markets = append(markets, ev.Markets[i].toDomainMarket(ev))
	}

	if len(markets) <= maxMarketsPerEvent {
		return markets
	}
	sort.SliceStable(markets, func(i, j int) bool {
		return markets[i].Probability > markets[j].Probability
	})
	return markets[:maxMarketsPerEvent]
}

func (c *Client) getEvents(ctx context.Context, cursor string) ([]APIEvent, string, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(pageSize))
	params.Set("status", "open")
	params.Set("with_nested_markets", "true")
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	body, err := c.doGet(ctx, "/events?"+params.Encode())
	if err != nil {
		return nil, "", err
	}

	var resp struct {
		Events []APIEvent `json:"events"`
		Cursor string     `json:"cursor"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, "", fmt.Errorf("decode events: %w", err)
	}
	return resp.Events, resp.Cursor, nil
}

func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: %s", domain.ErrRateLimited, body)
		}
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, body)
	}

	return body, nil
}
