package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oddslens/engine/internal/domain"
	"github.com/oddslens/engine/internal/engine"
	"github.com/oddslens/engine/internal/notify"
	"github.com/oddslens/engine/internal/server/ws"
)

// Runner drives aggregation cycles and publishes each result. Everything but
// the engine and the latest-snapshot holder is optional; a nil dependency
// skips that publish step, so the same Runner serves full deployments and
// bare `once` runs alike.
type Runner struct {
	engine   *engine.Engine
	latest   *Latest
	lock     domain.CycleLock        // optional
	cache    domain.SnapshotCache    // optional
	store    domain.MarketStore      // optional
	archiver domain.SnapshotArchiver // optional
	alerter  *notify.Alerter         // optional
	hub      *ws.Hub                 // optional

	cacheTTL time.Duration
	lockTTL  time.Duration
	logger   *slog.Logger
}

// Config wires a Runner.
type Config struct {
	Engine   *engine.Engine
	Latest   *Latest
	Lock     domain.CycleLock
	Cache    domain.SnapshotCache
	Store    domain.MarketStore
	Archiver domain.SnapshotArchiver
	Alerter  *notify.Alerter
	Hub      *ws.Hub

	// CacheTTL bounds how long a serve-only replica trusts a cached
	// snapshot after the collector stops.
	CacheTTL time.Duration

	// LockTTL is the single-flight lock expiry; it must exceed the longest
	// expected cycle so the lock cannot lapse mid-run.
	LockTTL time.Duration
}

// NewRunner creates a Runner from the given wiring.
func NewRunner(cfg Config, logger *slog.Logger) *Runner {
	return &Runner{
		engine:   cfg.Engine,
		latest:   cfg.Latest,
		lock:     cfg.Lock,
		cache:    cfg.Cache,
		store:    cfg.Store,
		archiver: cfg.Archiver,
		alerter:  cfg.Alerter,
		hub:      cfg.Hub,
		cacheTTL: cfg.CacheTTL,
		lockTTL:  cfg.LockTTL,
		logger:   logger.With(slog.String("component", "pipeline")),
	}
}

// RunOnce executes a single cycle under the single-flight lock and publishes
// the snapshot. When another replica holds the lock the cycle is skipped and
// domain.ErrLockHeld returned; the caller decides whether that matters.
func (r *Runner) RunOnce(ctx context.Context) (domain.Snapshot, error) {
	if r.lock != nil {
		unlock, err := r.lock.Acquire(ctx, r.lockTTL)
		if err != nil {
			if errors.Is(err, domain.ErrLockHeld) {
				r.logger.InfoContext(ctx, "cycle already running elsewhere, skipping")
				return domain.Snapshot{}, domain.ErrLockHeld
			}
			return domain.Snapshot{}, fmt.Errorf("pipeline: acquire cycle lock: %w", err)
		}
		defer unlock()
	}

	snap := r.engine.RunCycle(ctx)
	r.publish(ctx, snap)
	return snap, nil
}

// RunLoop runs cycles on the given interval until the context is cancelled,
// with an immediate first run.
func (r *Runner) RunLoop(ctx context.Context, interval time.Duration) error {
	r.logger.InfoContext(ctx, "cycle loop starting",
		slog.Duration("interval", interval),
	)

	if _, err := r.RunOnce(ctx); err != nil && !errors.Is(err, domain.ErrLockHeld) {
		r.logger.ErrorContext(ctx, "cycle failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("cycle loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil && !errors.Is(err, domain.ErrLockHeld) {
				r.logger.ErrorContext(ctx, "cycle failed", slog.String("error", err.Error()))
			}
		}
	}
}

// publish fans the snapshot out to every configured sink. The in-memory swap
// happens first and cannot fail; each remaining sink is best-effort so one
// unavailable backend never costs the others the cycle.
func (r *Runner) publish(ctx context.Context, snap domain.Snapshot) {
	r.latest.Swap(snap)

	if r.hub != nil {
		r.hub.BroadcastSnapshot(snap)
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, snap, r.cacheTTL); err != nil {
			r.logger.ErrorContext(ctx, "cache snapshot failed",
				slog.String("run_id", snap.RunID),
				slog.String("error", err.Error()),
			)
		}
	}

	if r.store != nil {
		if err := r.store.UpsertMarkets(ctx, snap.RunID, snap.Markets); err != nil {
			r.logger.ErrorContext(ctx, "persist markets failed",
				slog.String("run_id", snap.RunID),
				slog.String("error", err.Error()),
			)
		}
	}

	if r.archiver != nil {
		key, err := r.archiver.Archive(ctx, snap)
		if err != nil {
			r.logger.ErrorContext(ctx, "archive snapshot failed",
				slog.String("run_id", snap.RunID),
				slog.String("error", err.Error()),
			)
		} else {
			r.logger.DebugContext(ctx, "snapshot archived",
				slog.String("run_id", snap.RunID),
				slog.String("key", key),
			)
		}
	}

	if r.alerter != nil {
		if err := r.alerter.AlertSnapshot(ctx, snap); err != nil {
			r.logger.ErrorContext(ctx, "alerts failed",
				slog.String("run_id", snap.RunID),
				slog.String("error", err.Error()),
			)
		}
	}
}
