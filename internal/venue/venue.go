// Package venue defines the contract every venue ingestor implements.
// Concrete clients live in the per-venue subpackages (polymarket, kalshi,
// manifold, predictit) and map raw venue responses into canonical
// domain.Market records with deterministic, venue-prefixed IDs.
package venue

import (
	"context"

	"github.com/oddslens/engine/internal/domain"
)

// Ingestor fetches one venue's listing and normalizes it. Fetch may return an
// error; the engine's collector absorbs it, records a side-channel status, and
// treats the venue as having contributed zero markets for the cycle. Errors
// never abort sibling ingestors.
type Ingestor interface {
	// Venue returns the venue this ingestor covers.
	Venue() domain.Venue
	// Prefix returns the ID namespace prefix, e.g. "kalshi_". Every market
	// returned by Fetch has an ID starting with this prefix, and identical
	// raw input always yields identical IDs.
	Prefix() string
	// Fetch retrieves and normalizes the venue's current market listing.
	Fetch(ctx context.Context) ([]domain.Market, error)
}
