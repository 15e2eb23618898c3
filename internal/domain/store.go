package domain

import (
	"context"
	"time"
)

// MarketStore persists canonical markets across cycles. Computed signals
// (pairs, edges, correlations) are deliberately never stored; only market
// state and its observed probability history are.
type MarketStore interface {
	// UpsertMarkets writes one cycle's selected markets, keyed by Market.ID,
	// and appends a probability observation for each.
	UpsertMarkets(ctx context.Context, runID string, markets []Market) error
	// History returns up to limit stored probability points for a market,
	// oldest first.
	History(ctx context.Context, marketID string, limit int) ([]PricePoint, error)
	// Count returns the number of known markets.
	Count(ctx context.Context) (int64, error)
}

// SnapshotCache holds the most recent cycle result for fast serving.
type SnapshotCache interface {
	Set(ctx context.Context, snap Snapshot, ttl time.Duration) error
	Get(ctx context.Context) (Snapshot, error)
}

// CycleLock is a single-flight guard preventing overlapping aggregation
// cycles across process replicas. Acquire returns ErrLockHeld when another
// holder is active.
type CycleLock interface {
	Acquire(ctx context.Context, ttl time.Duration) (unlock func(), err error)
}

// SnapshotArchiver writes a durable copy of a cycle snapshot to cold storage.
type SnapshotArchiver interface {
	Archive(ctx context.Context, snap Snapshot) (key string, err error)
}

// RateLimiter answers whether a keyed client may perform another request
// within the window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// ListOpts carries standard pagination parameters for list queries.
type ListOpts struct {
	Limit  int
	Offset int
}
