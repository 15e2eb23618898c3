package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ODDSLENS_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// LoadDefault returns the built-in defaults with environment overrides
// applied, for running without a config file.
func LoadDefault() *Config {
	cfg := Defaults()
	_ = godotenv.Load()
	applyEnvOverrides(&cfg)
	return &cfg
}

// applyEnvOverrides reads well-known ODDSLENS_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Venues ──
	setBool(&cfg.Venues.Polymarket.Enabled, "ODDSLENS_VENUES_POLYMARKET_ENABLED")
	setStr(&cfg.Venues.Polymarket.BaseURL, "ODDSLENS_VENUES_POLYMARKET_BASE_URL")
	setDuration(&cfg.Venues.Polymarket.FetchTimeout, "ODDSLENS_VENUES_POLYMARKET_FETCH_TIMEOUT")
	setBool(&cfg.Venues.Kalshi.Enabled, "ODDSLENS_VENUES_KALSHI_ENABLED")
	setStr(&cfg.Venues.Kalshi.BaseURL, "ODDSLENS_VENUES_KALSHI_BASE_URL")
	setDuration(&cfg.Venues.Kalshi.FetchTimeout, "ODDSLENS_VENUES_KALSHI_FETCH_TIMEOUT")
	setBool(&cfg.Venues.Manifold.Enabled, "ODDSLENS_VENUES_MANIFOLD_ENABLED")
	setStr(&cfg.Venues.Manifold.BaseURL, "ODDSLENS_VENUES_MANIFOLD_BASE_URL")
	setDuration(&cfg.Venues.Manifold.FetchTimeout, "ODDSLENS_VENUES_MANIFOLD_FETCH_TIMEOUT")
	setBool(&cfg.Venues.PredictIt.Enabled, "ODDSLENS_VENUES_PREDICTIT_ENABLED")
	setStr(&cfg.Venues.PredictIt.BaseURL, "ODDSLENS_VENUES_PREDICTIT_BASE_URL")
	setDuration(&cfg.Venues.PredictIt.FetchTimeout, "ODDSLENS_VENUES_PREDICTIT_FETCH_TIMEOUT")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "ODDSLENS_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "ODDSLENS_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "ODDSLENS_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "ODDSLENS_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "ODDSLENS_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "ODDSLENS_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "ODDSLENS_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "ODDSLENS_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "ODDSLENS_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "ODDSLENS_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "ODDSLENS_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "ODDSLENS_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "ODDSLENS_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ODDSLENS_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ODDSLENS_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ODDSLENS_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ODDSLENS_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ODDSLENS_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "ODDSLENS_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "ODDSLENS_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "ODDSLENS_S3_REGION")
	setStr(&cfg.S3.Bucket, "ODDSLENS_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "ODDSLENS_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "ODDSLENS_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "ODDSLENS_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "ODDSLENS_S3_FORCE_PATH_STYLE")

	// ── Engine ──
	setDuration(&cfg.Engine.CycleInterval, "ODDSLENS_ENGINE_CYCLE_INTERVAL")
	setDuration(&cfg.Engine.CacheTTL, "ODDSLENS_ENGINE_CACHE_TTL")
	setDuration(&cfg.Engine.LockTTL, "ODDSLENS_ENGINE_LOCK_TTL")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "ODDSLENS_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "ODDSLENS_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "ODDSLENS_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "ODDSLENS_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "ODDSLENS_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateLimitWindow, "ODDSLENS_SERVER_RATE_LIMIT_WINDOW")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "ODDSLENS_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ODDSLENS_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "ODDSLENS_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "ODDSLENS_NOTIFY_EVENTS")
	setFloat64(&cfg.Notify.MinArbSpread, "ODDSLENS_NOTIFY_MIN_ARB_SPREAD")

	// ── Top-level ──
	setStr(&cfg.Mode, "ODDSLENS_MODE")
	setStr(&cfg.LogLevel, "ODDSLENS_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
