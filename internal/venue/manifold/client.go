// Package manifold ingests markets from the Manifold search API. Manifold is
// an AMM venue: a single bulk search call returns every open binary market we
// care about, so there is no pagination loop here.
package manifold

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/oddslens/engine/internal/domain"
)

const (
	idPrefix = "manifold_"

	// bulkLimit bounds the single search call.
	bulkLimit = 500
)

// Client is the REST ingestor for the Manifold API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Manifold ingestor.
//
// baseURL is the API root, e.g. "https://api.manifold.markets".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Venue implements venue.Ingestor.
func (c *Client) Venue() domain.Venue { return domain.VenueManifold }

// Prefix implements venue.Ingestor.
func (c *Client) Prefix() string { return idPrefix }

// Fetch retrieves open binary markets with a single bulk search call.
func (c *Client) Fetch(ctx context.Context) ([]domain.Market, error) {
	params := url.Values{}
	params.Set("term", "")
	params.Set("filter", "open")
	params.Set("contractType", "BINARY")
	params.Set("sort", "liquidity")
	params.Set("limit", strconv.Itoa(bulkLimit))

	body, err := c.doGet(ctx, "/v0/search-markets?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("manifold: search markets: %w", err)
	}

	var apiMarkets []APIMarket
	if err := json.Unmarshal(body, &apiMarkets); err != nil {
		return nil, fmt.Errorf("manifold: decode markets: %w", err)
	}

	now := time.Now().UTC()
	out := make([]domain.Market, 0, len(apiMarkets))
	for i := range apiMarkets {
		out = append(out, apiMarkets[i].toDomainMarket(now))
	}
	return out, nil
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
