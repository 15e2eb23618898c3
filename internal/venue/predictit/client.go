// Package predictit ingests markets from the PredictIt market-data API.
// PredictIt exposes one bulk endpoint covering every listed market; there is
// no order book and no price-history API, so its markets rely on the
// synthetic history synthesizer downstream.
package predictit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/oddslens/engine/internal/domain"
)

const (
	idPrefix = "predictit_"

	maxContractsPerMarket = 3
)

// Client is the REST ingestor for the PredictIt API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a PredictIt ingestor.
//
// baseURL is the API root, e.g. "https://www.predictit.org/api/marketdata".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Venue implements venue.Ingestor.
func (c *Client) Venue() domain.Venue { return domain.VenuePredictIt }

// Prefix implements venue.Ingestor.
func (c *Client) Prefix() string { return idPrefix }

// Fetch retrieves all markets in one bulk call and normalizes every contract,
// keeping at most the top-3 contracts per market by implied probability.
func (c *Client) Fetch(ctx context.Context) ([]domain.Market, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/all/", nil)
	if err != nil {
		return nil, fmt.Errorf("predictit: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("predictit: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("predictit: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("predictit: %w: %s", domain.ErrRateLimited, body)
		}
		return nil, fmt.Errorf("predictit: HTTP %d: %s", resp.StatusCode, body)
	}

	var data APIResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("predictit: decode markets: %w", err)
	}

	var out []domain.Market
	for i := range data.Markets {
		out = append(out, marketContracts(&data.Markets[i])...)
	}
	return out, nil
}

func marketContracts(m *APIMarket) []domain.Market {
	markets := make([]domain.Market, 0, len(m.Contracts))
	for i := range m.Contracts {
		markets = append(markets, m.Contracts[i].toDomainMarket(m))
	}

	if len(markets) <= maxContractsPerMarket {
		return markets
	}
	sort.SliceStable(markets, func(i, j int) bool {
		return markets[i].Probability > markets[j].Probability
	})
	return markets[:maxContractsPerMarket]
}
