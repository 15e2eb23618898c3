package polymarket

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/oddslens/engine/internal/classify"
	"github.com/oddslens/engine/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// APIEvent represents an event as returned by the Polymarket Gamma API.
// An event groups one or more related markets under one umbrella question.
type APIEvent struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Active      flexBool    `json:"active"`
	Closed      bool        `json:"closed"`
	Volume      json.Number `json:"volume"`
	Markets     []APIMarket `json:"markets"`
	Tags        []APITag    `json:"tags"`
}

// APITag is a topical tag attached to a Gamma event.
type APITag struct {
	Label string `json:"label"`
	Slug  string `json:"slug"`
}

// APIMarket represents a market nested inside a Gamma event.
type APIMarket struct {
	ID                string   `json:"id"`
	Question          string   `json:"question"`
	ConditionID       string   `json:"conditionId"`
	Description       string   `json:"description"`
	Active            flexBool `json:"active"`
	Closed            bool     `json:"closed"`
	OutcomePrices     string   `json:"outcomePrices"` // JSON-encoded: e.g. "[\"0.62\",\"0.38\"]"
	ClobTokenIDs      string   `json:"clobTokenIds"`  // JSON-encoded: e.g. "[\"123\",\"456\"]"
	Volume            string   `json:"volume"`
	OneDayPriceChange float64  `json:"oneDayPriceChange"`
	EndDate           string   `json:"endDate"`
}

// yesPrice returns the YES price on the 0-100 scale, already clamped to the
// live-price band. A missing or malformed outcomePrices array falls back to
// 50 rather than losing the market.
func (m *APIMarket) yesPrice() float64 {
	var prices []string
	if err := json.Unmarshal([]byte(m.OutcomePrices), &prices); err != nil || len(prices) == 0 {
		return 50
	}
	p, err := strconv.ParseFloat(prices[0], 64)
	if err != nil {
		return 50
	}
	return domain.ClampProbability(p * 100)
}

// yesTokenID returns the CLOB token ID of the YES outcome, or "" when the
// clobTokenIds array is missing or malformed.
func (m *APIMarket) yesTokenID() string {
	var ids []string
	if err := json.Unmarshal([]byte(m.ClobTokenIDs), &ids); err != nil || len(ids) == 0 {
		return ""
	}
	return ids[0]
}

// toDomainMarket converts a nested Gamma market to the canonical shape. The
// parent event supplies the tag text signals used for classification.
func (m *APIMarket) toDomainMarket(ev *APIEvent) domain.Market {
	prob := m.yesPrice()

	vol, _ := strconv.ParseFloat(m.Volume, 64)
	if vol < 0 {
		vol = 0
	}

	status := domain.MarketStatusActive
	if m.Closed || ev.Closed {
		status = domain.MarketStatusClosed
	} else if !bool(m.Active) {
		status = domain.MarketStatusResolved
	}

	endDate := ""
	if t, err := time.Parse(time.RFC3339, m.EndDate); err == nil {
		endDate = t.Format("2006-01-02")
	}

	var tags []string
	for _, t := range ev.Tags {
		tags = append(tags, t.Label)
	}
	text := strings.Join(tags, " ") + " " + ev.Title + " " + m.Question + " " + m.Description

	title := m.Question
	if title == "" {
		title = ev.Title
	}

	return domain.Market{
		ID:                  idPrefix + m.ID,
		Title:               title,
		Description:         m.Description,
		Category:            classify.Categorize(text),
		Probability:         prob,
		PreviousProbability: prob,
		Volume:              vol,
		Change24h:           m.OneDayPriceChange * 100,
		Status:              status,
		EndDate:             endDate,
		Source:              domain.VenuePolymarket,
		ClobTokenID:         m.yesTokenID(),
		ConditionID:         m.ConditionID,
	}
}
