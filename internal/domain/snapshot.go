package domain

import "time"

// VenueStatus is the side-channel fetch report for one venue in one cycle,
// e.g. "kalshi:OK(412)" or "manifold:ERR".
type VenueStatus struct {
	Venue  Venue  `json:"venue"`
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// Snapshot is the immutable result of one aggregation cycle. Markets is the
// selector's final ordered list and the single shared input every analytics
// output in the snapshot was computed from; nothing downstream mutates it.
type Snapshot struct {
	RunID        string                `json:"runId"`
	FetchedAt    time.Time             `json:"fetchedAt"`
	Markets      []Market              `json:"markets"`
	Pairs        []ArbPair             `json:"pairs"`
	Edges        map[string]EdgeSignal `json:"edges"`
	CategoryCorr CorrelationMatrix     `json:"categoryCorrelations"`
	MarketCorr   CorrelationMatrix     `json:"marketCorrelations"`
	VenueStatus  []VenueStatus         `json:"venueStatus"`
}
