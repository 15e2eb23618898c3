package predictit

import (
	"strconv"
	"time"

	"github.com/oddslens/engine/internal/classify"
	"github.com/oddslens/engine/internal/domain"
)

// APIResponse is the envelope of the PredictIt bulk market-data endpoint.
type APIResponse struct {
	Markets []APIMarket `json:"markets"`
}

// APIMarket represents one PredictIt market with its nested contracts.
type APIMarket struct {
	ID        int64         `json:"id"`
	Name      string        `json:"name"`
	ShortName string        `json:"shortName"`
	Status    string        `json:"status"` // "Open" or "Closed"
	Contracts []APIContract `json:"contracts"`
}

// APIContract is a single outcome contract. Prices are on the 0-1 scale.
// PredictIt has no order book and no history API; a contract that has never
// traded reports a zero lastTradePrice.
type APIContract struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	ShortName         string  `json:"shortName"`
	Status            string  `json:"status"`
	LastTradePrice    float64 `json:"lastTradePrice"`
	LastClosePrice    float64 `json:"lastClosePrice"`
	TotalSharesTraded float64 `json:"totalSharesTraded"`
	DateEnd           string  `json:"dateEnd"` // ISO timestamp or "N/A"/"NA"
}

// toDomainMarket converts one contract to the canonical shape. A contract
// with no trades and no shares is mapped to the deliberate unknown marker:
// probability exactly 50 with zero volume, which the aggregator's noise
// filter knows to keep for this venue.
func (ct *APIContract) toDomainMarket(m *APIMarket) domain.Market {
	var prob, prev, change float64
	vol := ct.TotalSharesTraded
	if vol < 0 {
		vol = 0
	}

	if ct.LastTradePrice <= 0 && vol == 0 {
		prob = 50
		prev = 50
	} else {
		prob = domain.ClampProbability(ct.LastTradePrice * 100)
		prev = prob
		if ct.LastClosePrice > 0 {
			prev = domain.ClampProbability(ct.LastClosePrice * 100)
			change = prob - prev
		}
	}

	status := domain.MarketStatusClosed
	if m.Status == "Open" && ct.Status == "Open" {
		status = domain.MarketStatusActive
	}

	endDate := ""
	if t, err := time.Parse(time.RFC3339, ct.DateEnd); err == nil {
		endDate = t.Format("2006-01-02")
	}

	title := m.Name
	if ct.Name != "" && ct.Name != m.Name {
		title = m.Name + " — " + ct.Name
	}

	return domain.Market{
		ID:                  idPrefix + strconv.FormatInt(ct.ID, 10),
		Title:               title,
		Description:         m.ShortName,
		Category:            classify.Categorize(m.Name + " " + ct.Name + " " + m.ShortName),
		Probability:         prob,
		PreviousProbability: prev,
		Volume:              vol,
		Change24h:           change,
		Status:              status,
		EndDate:             endDate,
		Source:              domain.VenuePredictIt,
	}
}
