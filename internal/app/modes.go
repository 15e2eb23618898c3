package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oddslens/engine/internal/pipeline"
	"github.com/oddslens/engine/internal/server"
	"github.com/oddslens/engine/internal/server/handler"
	"github.com/oddslens/engine/internal/server/ws"
)

// ServeMode runs aggregation cycles and the HTTP/WebSocket API together.
// With server.enabled=false it degrades to CollectMode.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	if !a.cfg.Server.Enabled {
		a.logger.WarnContext(ctx, "serve mode with server disabled, running collector only")
		return a.CollectMode(ctx, deps)
	}

	g, ctx := errgroup.WithContext(ctx)

	hub := ws.NewHub(a.cfg.Mode, a.logger)
	g.Go(func() error {
		if err := hub.Run(ctx); err != nil && ctx.Err() == nil {
			return fmt.Errorf("ws hub: %w", err)
		}
		return nil
	})

	runner := a.newRunner(deps, hub)
	g.Go(func() error {
		err := runner.RunLoop(ctx, a.cfg.Engine.CycleInterval.Duration)
		if ctx.Err() != nil {
			return nil // clean shutdown
		}
		return fmt.Errorf("cycle loop: %w", err)
	})

	var history handler.HistoryStore
	if deps.MarketStore != nil {
		history = deps.MarketStore
	}

	srv := server.NewServer(server.Config{
		Port:            a.cfg.Server.Port,
		CORSOrigins:     a.cfg.Server.CORSOrigins,
		APIKey:          a.cfg.Server.APIKey,
		RateLimiter:     deps.RateLimiter,
		RateLimit:       a.cfg.Server.RateLimit,
		RateLimitWindow: a.cfg.Server.RateLimitWindow.Duration,
	}, server.Handlers{
		Health:       handler.NewHealthHandler(a.logger),
		Markets:      handler.NewMarketHandler(deps.Latest, history, a.logger),
		Arbitrage:    handler.NewArbHandler(deps.Latest, a.logger),
		Edges:        handler.NewEdgeHandler(deps.Latest, a.logger),
		Correlations: handler.NewCorrelationHandler(deps.Latest, a.logger),
		Status:       handler.NewStatusHandler(a.cfg.Mode, time.Now().UTC(), deps.Latest, a.logger),
	}, hub, a.logger)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// CollectMode runs aggregation cycles and publishes results without serving
// an API. Serve-only replicas pick the output up through the shared cache.
func (a *App) CollectMode(ctx context.Context, deps *Dependencies) error {
	runner := a.newRunner(deps, nil)
	err := runner.RunLoop(ctx, a.cfg.Engine.CycleInterval.Duration)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// OnceMode runs a single cycle, publishes it to whatever backends are
// configured, and exits.
func (a *App) OnceMode(ctx context.Context, deps *Dependencies) error {
	runner := a.newRunner(deps, nil)
	snap, err := runner.RunOnce(ctx)
	if err != nil {
		return fmt.Errorf("single cycle: %w", err)
	}

	a.logger.InfoContext(ctx, "cycle summary",
		slog.String("run_id", snap.RunID),
		slog.Int("markets", len(snap.Markets)),
		slog.Int("pairs", len(snap.Pairs)),
		slog.Int("edges", len(snap.Edges)),
	)
	for _, vs := range snap.VenueStatus {
		a.logger.InfoContext(ctx, "venue status",
			slog.String("venue", string(vs.Venue)),
			slog.String("status", vs.Status),
		)
	}
	return nil
}

// newRunner assembles the cycle runner from the wired dependencies; hub may
// be nil when no API is being served.
func (a *App) newRunner(deps *Dependencies, hub *ws.Hub) *pipeline.Runner {
	return pipeline.NewRunner(pipeline.Config{
		Engine:   deps.Engine,
		Latest:   deps.Latest,
		Lock:     deps.Lock,
		Cache:    deps.Cache,
		Store:    deps.MarketStore,
		Archiver: deps.Archiver,
		Alerter:  deps.Alerter,
		Hub:      hub,
		CacheTTL: a.cfg.Engine.CacheTTL.Duration,
		LockTTL:  a.cfg.Engine.LockTTL.Duration,
	}, a.logger)
}
