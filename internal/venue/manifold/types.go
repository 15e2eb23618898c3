package manifold

import (
	"strings"
	"time"

	"github.com/oddslens/engine/internal/classify"
	"github.com/oddslens/engine/internal/domain"
)

// APIMarket represents a binary market from the Manifold search API.
// Probabilities are on the 0-1 scale; closeTime is Unix milliseconds.
type APIMarket struct {
	ID              string      `json:"id"`
	Question        string      `json:"question"`
	TextDescription string      `json:"textDescription"`
	Probability     float64     `json:"probability"`
	ProbChanges     ProbChanges `json:"probChanges"`
	Volume          float64     `json:"volume"`
	CloseTime       int64       `json:"closeTime"`
	IsResolved      bool        `json:"isResolved"`
	GroupSlugs      []string    `json:"groupSlugs"`
}

// ProbChanges holds probability deltas over standard windows, 0-1 scale.
type ProbChanges struct {
	Day   float64 `json:"day"`
	Week  float64 `json:"week"`
	Month float64 `json:"month"`
}

// toDomainMarket converts a Manifold market to the canonical shape.
func (m *APIMarket) toDomainMarket(now time.Time) domain.Market {
	prob := domain.ClampProbability(m.Probability * 100)
	change := m.ProbChanges.Day * 100

	status := domain.MarketStatusActive
	if m.IsResolved {
		status = domain.MarketStatusResolved
	} else if m.CloseTime > 0 && time.UnixMilli(m.CloseTime).Before(now) {
		status = domain.MarketStatusClosed
	}

	endDate := ""
	if m.CloseTime > 0 {
		endDate = time.UnixMilli(m.CloseTime).UTC().Format("2006-01-02")
	}

	vol := m.Volume
	if vol < 0 {
		vol = 0
	}

	text := strings.Join(m.GroupSlugs, " ") + " " + m.Question + " " + m.TextDescription

	return domain.Market{
		ID:                  idPrefix + m.ID,
		Title:               m.Question,
		Description:         m.TextDescription,
		Category:            classify.Categorize(text),
		Probability:         prob,
		PreviousProbability: domain.ClampProbability(prob - change),
		Volume:              vol,
		Change24h:           change,
		Status:              status,
		EndDate:             endDate,
		Source:              domain.VenueManifold,
	}
}
