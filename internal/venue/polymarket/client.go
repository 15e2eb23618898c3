// Package polymarket ingests markets from the Polymarket Gamma API.
package polymarket

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
	idPrefix = "poly_"

	// pageSize and maxPages bound listing latency: at most 3 offset pages of
	// 100 events per fetch.
	pageSize = 100
	maxPages = 3

	// maxMarketsPerEvent caps how many sub-markets one umbrella event may
	// contribute, keeping long-tail outcomes out of the output.
	maxMarketsPerEvent = 3
)

// Client is the REST ingestor for the Polymarket Gamma API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Polymarket ingestor.
//
// baseURL is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Venue implements venue.Ingestor.
func (c *Client) Venue() domain.Venue { return domain.VenuePolymarket }

// Prefix implements venue.Ingestor.
func (c *Client) Prefix() string { return idPrefix }

// Fetch paginates the active-events listing by offset and normalizes every
// nested market, keeping at most the top-3 sub-markets per event by implied
// probability.
func (c *Client) Fetch(ctx context.Context) ([]domain.Market, error) {
	var out []domain.Market

	for page := 0; page < maxPages; page++ {
		events, err := c.getEvents(ctx, pageSize, page*pageSize)
		if err != nil {
			return nil, fmt.Errorf("polymarket: get events page %d: %w", page, err)
		}
		if len(events) == 0 {
			break
		}

		for i := range events {
			out = append(out, eventMarkets(&events[i])...)
		}

		if len(events) < pageSize {
			break
		}
	}

	return out, nil
}

// eventMarkets normalizes one event's nested markets and applies the
// top-3-by-probability cap.
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

func (c *Client) getEvents(ctx context.Context, limit, offset int) ([]APIEvent, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	params.Set("active", "true")
	params.Set("closed", "false")
	params.Set("order", "volume")
	params.Set("ascending", "false")

	body, err := c.doGet(ctx, "/events?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var events []APIEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return events, nil
}

// doGet sends an unauthenticated GET request to the Gamma API.
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
