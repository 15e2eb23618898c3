// Package engine is the cross-venue aggregation, normalization, and
// signal-detection core. Given one cycle's venue data it deterministically
// produces the selected market list, arbitrage pairs, edge signals, and
// correlation matrices; it holds no state between runs.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/oddslens/engine/internal/domain"
)

// Engine runs one full aggregation cycle: collect, aggregate, match, score,
// correlate. Every analytics output is a pure function of the same selected
// market list.
type Engine struct {
	collector *Collector
	logger    *slog.Logger
}

// New creates an Engine over the given collector.
func New(collector *Collector, logger *slog.Logger) *Engine {
	return &Engine{
		collector: collector,
		logger:    logger.With(slog.String("component", "engine")),
	}
}

// RunCycle executes one aggregation cycle and returns its immutable
// snapshot. A cycle always completes with whatever venues succeeded; if
// every venue failed, the snapshot is valid but empty.
func (e *Engine) RunCycle(ctx context.Context) domain.Snapshot {
	runID := uuid.NewString()
	started := time.Now().UTC()

	raw, statuses := e.collector.Collect(ctx)
	markets := Aggregate(raw)

	// PredictIt has no history API; reconstruct its series so sparklines and
	// correlations have something to work with, clearly labeled synthetic.
	for i := range markets {
		if markets[i].Source == domain.VenuePredictIt && len(markets[i].PriceHistory) == 0 {
			markets[i].PriceHistory = SynthesizeHistory(
				markets[i].ID, markets[i].Probability, markets[i].Change24h, started,
			)
			markets[i].SyntheticHistory = true
		}
	}

	pairs := MatchArbPairs(markets)
	edges := ScoreEdges(markets, pairs)

	snap := domain.Snapshot{
		RunID:        runID,
		FetchedAt:    started,
		Markets:      markets,
		Pairs:        pairs,
		Edges:        edges,
		CategoryCorr: CategoryCorrelations(markets),
		MarketCorr:   MarketCorrelations(markets, started),
		VenueStatus:  statuses,
	}

	e.logger.InfoContext(ctx, "cycle complete",
		slog.String("run_id", runID),
		slog.Int("raw_markets", len(raw)),
		slog.Int("selected", len(markets)),
		slog.Int("arb_pairs", len(pairs)),
		slog.Int("edges", len(edges)),
		slog.Duration("elapsed", time.Since(started)),
	)
	return snap
}
