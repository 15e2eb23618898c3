// Package pipeline schedules aggregation cycles and publishes their results:
// in-memory swap for the API, Redis cache for serve-only replicas, Postgres
// upsert, S3 archive, operator alerts, and WebSocket broadcast.
package pipeline

import (
	"context"
	"sync"

	"github.com/oddslens/engine/internal/domain"
)

// Latest holds the most recent snapshot for the API handlers. Replicas that
// never run cycles themselves fall back to the shared cache, so a serve-only
// process still answers from the collector replica's output.
type Latest struct {
	mu    sync.RWMutex
	snap  domain.Snapshot
	ready bool

	cache domain.SnapshotCache // optional fallback
}

// NewLatest creates a Latest with an optional cache fallback.
func NewLatest(cache domain.SnapshotCache) *Latest {
	return &Latest{cache: cache}
}

// Latest returns the newest known snapshot, preferring the in-memory copy and
// falling back to the cache. Returns domain.ErrNoSnapshot when neither has one.
func (l *Latest) Latest(ctx context.Context) (domain.Snapshot, error) {
	l.mu.RLock()
	snap, ready := l.snap, l.ready
	l.mu.RUnlock()
	if ready {
		return snap, nil
	}
	if l.cache != nil {
		return l.cache.Get(ctx)
	}
	return domain.Snapshot{}, domain.ErrNoSnapshot
}

// Swap replaces the in-memory snapshot.
func (l *Latest) Swap(snap domain.Snapshot) {
	l.mu.Lock()
	l.snap = snap
	l.ready = true
	l.mu.Unlock()
}
