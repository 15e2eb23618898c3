package kalshi

import (
	"strings"
	"time"

	"github.com/oddslens/engine/internal/classify"
	"github.com/oddslens/engine/internal/domain"
)

// APIEvent represents an event from the Kalshi events API with nested markets.
type APIEvent struct {
	EventTicker string      `json:"event_ticker"`
	Title       string      `json:"title"`
	SubTitle    string      `json:"sub_title"`
	Category    string      `json:"category"`
	Markets     []APIMarket `json:"markets"`
}

// APIMarket represents a market nested inside a Kalshi event. Prices are
// already expressed in cents (0-100).
type APIMarket struct {
	Ticker        string  `json:"ticker"`
	Title         string  `json:"title"`
	Subtitle      string  `json:"subtitle"`
	YesSubTitle   string  `json:"yes_sub_title"`
	Status        string  `json:"status"` // "active"/"open", "closed", "settled"
	LastPrice     float64 `json:"last_price"`
	YesAsk        float64 `json:"yes_ask"`
	PreviousPrice float64 `json:"previous_price"`
	Volume        float64 `json:"volume"`
	CloseTime     string  `json:"close_time"`
}

// probability returns the YES price in cents, preferring the last trade and
// falling back to the ask when the market has never traded.
func (m *APIMarket) probability() float64 {
	p := m.LastPrice
	if p == 0 {
		p = m.YesAsk
	}
	if p == 0 {
		return 50
	}
	return domain.ClampProbability(p)
}

// toDomainMarket converts a nested Kalshi market to the canonical shape.
func (m *APIMarket) toDomainMarket(ev *APIEvent) domain.Market {
	prob := m.probability()

	prev := prob
	change := 0.0
	if m.PreviousPrice > 0 {
		prev = domain.ClampProbability(m.PreviousPrice)
		change = prob - prev
	}

	var status domain.MarketStatus
	switch m.Status {
	case "active", "open":
		status = domain.MarketStatusActive
	case "settled", "finalized":
		status = domain.MarketStatusResolved
	default:
		status = domain.MarketStatusClosed
	}

	endDate := ""
	if t, err := time.Parse(time.RFC3339, m.CloseTime); err == nil {
		endDate = t.Format("2006-01-02")
	}

	title := ev.Title
	sub := m.YesSubTitle
	if sub == "" {
		sub = m.Subtitle
	}
	if sub != "" {
		title = ev.Title + " — " + sub
	}

	text := ev.Category + " " + ev.Title + " " + m.Title + " " + sub

	return domain.Market{
		ID:                  idPrefix + strings.ToLower(m.Ticker),
		Title:               title,
		Description:         ev.SubTitle,
		Category:            classify.Categorize(text),
		Probability:         prob,
		PreviousProbability: prev,
		Volume:              m.Volume,
		Change24h:           change,
		Status:              status,
		EndDate:             endDate,
		Source:              domain.VenueKalshi,
	}
}
