package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	s3blob "github.com/oddslens/engine/internal/blob/s3"
	"github.com/oddslens/engine/internal/cache/redis"
	"github.com/oddslens/engine/internal/config"
	"github.com/oddslens/engine/internal/domain"
	"github.com/oddslens/engine/internal/engine"
	"github.com/oddslens/engine/internal/notify"
	"github.com/oddslens/engine/internal/pipeline"
	"github.com/oddslens/engine/internal/store/postgres"
	"github.com/oddslens/engine/internal/venue"
	"github.com/oddslens/engine/internal/venue/kalshi"
	"github.com/oddslens/engine/internal/venue/manifold"
	"github.com/oddslens/engine/internal/venue/polymarket"
	"github.com/oddslens/engine/internal/venue/predictit"
)

// Dependencies bundles everything the application modes need. Optional
// backends are nil when disabled in configuration; the pipeline and handlers
// degrade accordingly.
type Dependencies struct {
	Engine *engine.Engine
	Latest *pipeline.Latest

	MarketStore domain.MarketStore
	Cache       domain.SnapshotCache
	Lock        domain.CycleLock
	RateLimiter domain.RateLimiter
	Archiver    domain.SnapshotArchiver
	Alerter     *notify.Alerter
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Venue ingestors ---
	var ingestors []venue.Ingestor
	timeouts := make(map[domain.Venue]time.Duration)
	if cfg.Venues.Polymarket.Enabled {
		ingestors = append(ingestors, polymarket.NewClient(cfg.Venues.Polymarket.BaseURL))
		timeouts[domain.VenuePolymarket] = cfg.Venues.Polymarket.FetchTimeout.Duration
	}
	if cfg.Venues.Kalshi.Enabled {
		ingestors = append(ingestors, kalshi.NewClient(cfg.Venues.Kalshi.BaseURL))
		timeouts[domain.VenueKalshi] = cfg.Venues.Kalshi.FetchTimeout.Duration
	}
	if cfg.Venues.Manifold.Enabled {
		ingestors = append(ingestors, manifold.NewClient(cfg.Venues.Manifold.BaseURL))
		timeouts[domain.VenueManifold] = cfg.Venues.Manifold.FetchTimeout.Duration
	}
	if cfg.Venues.PredictIt.Enabled {
		ingestors = append(ingestors, predictit.NewClient(cfg.Venues.PredictIt.BaseURL))
		timeouts[domain.VenuePredictIt] = cfg.Venues.PredictIt.FetchTimeout.Duration
	}

	collector := engine.NewCollector(ingestors, timeouts, logger)
	deps.Engine = engine.New(collector, logger)

	// --- PostgreSQL ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.MarketStore = postgres.NewMarketStore(pgClient.Pool())
	}

	// --- Redis ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.Cache = redis.NewSnapshotCache(redisClient)
		deps.Lock = redis.NewCycleLock(redisClient)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
	}

	// --- S3 snapshot archive ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client))
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	if len(senders) > 0 {
		notifier := notify.NewNotifier(senders, cfg.Notify.Events, logger)
		deps.Alerter = notify.NewAlerter(notifier, cfg.Notify.MinArbSpread)
	}

	deps.Latest = pipeline.NewLatest(deps.Cache)

	return deps, cleanup, nil
}
