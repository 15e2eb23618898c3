package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oddslens/engine/internal/domain"
	"github.com/oddslens/engine/internal/venue"
)

// Collector fans out to every venue ingestor concurrently and fans the
// results back in. A slow or failing venue only degrades its own
// contribution: its error is absorbed into a side-channel status string and
// the cycle proceeds with whatever the other venues returned.
type Collector struct {
	ingestors []venue.Ingestor
	timeouts  map[domain.Venue]time.Duration
	logger    *slog.Logger
}

// defaultFetchTimeout bounds a venue fetch when no per-venue timeout is
// configured.
const defaultFetchTimeout = 20 * time.Second

// NewCollector creates a Collector over the given ingestors. timeouts maps a
// venue to its fetch deadline; venues absent from the map get the default.
func NewCollector(ingestors []venue.Ingestor, timeouts map[domain.Venue]time.Duration, logger *slog.Logger) *Collector {
	return &Collector{
		ingestors: ingestors,
		timeouts:  timeouts,
		logger:    logger.With(slog.String("component", "collector")),
	}
}

// Collect runs every ingestor concurrently and returns the combined market
// list plus one status entry per venue, in ingestor order. It never returns
// an error: total venue failure yields an empty list, which downstream
// components handle without special-casing.
func (c *Collector) Collect(ctx context.Context) ([]domain.Market, []domain.VenueStatus) {
	results := make([][]domain.Market, len(c.ingestors))
	statuses := make([]domain.VenueStatus, len(c.ingestors))

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)

	for i, ing := range c.ingestors {
		g.Go(func() error {
			v := ing.Venue()
			timeout := c.timeouts[v]
			if timeout <= 0 {
				timeout = defaultFetchTimeout
			}
			fetchCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			started := time.Now()
			markets, err := ing.Fetch(fetchCtx)
			elapsed := time.Since(started)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				c.logger.WarnContext(ctx, "venue fetch failed",
					slog.String("venue", string(v)),
					slog.Duration("elapsed", elapsed),
					slog.String("error", err.Error()),
				)
				statuses[i] = domain.VenueStatus{Venue: v, Status: fmt.Sprintf("%s:ERR", v)}
				return nil
			}

			c.logger.InfoContext(ctx, "venue fetch complete",
				slog.String("venue", string(v)),
				slog.Int("markets", len(markets)),
				slog.Duration("elapsed", elapsed),
			)
			results[i] = markets
			statuses[i] = domain.VenueStatus{
				Venue:  v,
				Status: fmt.Sprintf("%s:OK(%d)", v, len(markets)),
				Count:  len(markets),
			}
			return nil
		})
	}

	// Goroutines only ever return nil; Wait is for synchronization.
	_ = g.Wait()

	var combined []domain.Market
	for _, r := range results {
		combined = append(combined, r...)
	}
	return combined, statuses
}
