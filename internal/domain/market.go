package domain

// Venue identifies the trading platform a market was ingested from.
type Venue string

const (
	VenuePolymarket Venue = "polymarket"
	VenueKalshi     Venue = "kalshi"
	VenueManifold   Venue = "manifold"
	VenuePredictIt  Venue = "predictit"
)

// Venues lists every supported venue in ingestion order.
var Venues = []Venue{VenuePolymarket, VenueKalshi, VenueManifold, VenuePredictIt}

// Category is the topical bucket a market is classified into.
type Category string

const (
	CategoryPolitics Category = "Politics"
	CategorySports   Category = "Sports"
	CategoryCrypto   Category = "Crypto"
	CategoryTech     Category = "Tech"
	CategoryWorld    Category = "World Events"
)

// Categories lists the fixed category set in classification order.
var Categories = []Category{
	CategoryPolitics,
	CategorySports,
	CategoryCrypto,
	CategoryTech,
	CategoryWorld,
}

// MarketStatus represents the lifecycle state of a market.
type MarketStatus string

const (
	MarketStatusActive   MarketStatus = "active"
	MarketStatusResolved MarketStatus = "resolved"
	MarketStatusClosed   MarketStatus = "closed"
)

// PricePoint is a single (timestamp, probability) observation in a market's
// price history. Timestamp is Unix milliseconds.
type PricePoint struct {
	Timestamp   int64   `json:"t"`
	Probability float64 `json:"p"`
}

// Market is the canonical, venue-agnostic representation of a binary
// prediction market. Probability is the YES price in [0,100]; for
// order-driven venues it is clamped to [1,99], while PredictIt contracts
// with no trades carry an exact 50 with zero volume as an "unknown" marker.
type Market struct {
	ID                  string       `json:"id"`
	Title               string       `json:"title"`
	Description         string       `json:"description,omitempty"`
	Category            Category     `json:"category"`
	Probability         float64      `json:"probability"`
	PreviousProbability float64      `json:"previousProbability"`
	Volume              float64      `json:"volume"`
	Change24h           float64      `json:"change24h"`
	Status              MarketStatus `json:"status"`
	EndDate             string       `json:"endDate,omitempty"`
	Source              Venue        `json:"source"`
	PriceHistory        []PricePoint `json:"priceHistory,omitempty"`

	// SyntheticHistory marks PriceHistory as reconstructed rather than
	// observed. Callers must not treat synthetic series as market data.
	SyntheticHistory bool `json:"syntheticHistory,omitempty"`

	// Venue-specific correlation keys, used only to fetch history.
	ClobTokenID string `json:"clobTokenId,omitempty"`
	ConditionID string `json:"conditionId,omitempty"`
}

// Active reports whether the market is still trading.
func (m *Market) Active() bool {
	return m.Status == MarketStatusActive
}

// ClampProbability bounds p to the live-price band [1,99].
func ClampProbability(p float64) float64 {
	if p < 1 {
		return 1
	}
	if p > 99 {
		return 99
	}
	return p
}
