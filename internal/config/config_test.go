package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.Mode != "serve" {
		t.Errorf("default mode = %q, want serve", cfg.Mode)
	}
	if cfg.Engine.CycleInterval.Duration != 5*time.Minute {
		t.Errorf("default cycle interval = %v, want 5m", cfg.Engine.CycleInterval.Duration)
	}
	if !cfg.Venues.Polymarket.Enabled || !cfg.Venues.PredictIt.Enabled {
		t.Error("all venues enabled by default")
	}
	if cfg.Postgres.Enabled || cfg.Redis.Enabled || cfg.S3.Enabled {
		t.Error("backends must be opt-in")
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "daemon"
	cfg.LogLevel = "verbose"
	cfg.Venues = VenuesConfig{} // none enabled
	cfg.Engine.CycleInterval = duration{}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation failure")
	}
	for _, want := range []string{
		`unknown mode "daemon"`,
		`unknown log_level "verbose"`,
		"at least one venue",
		"cycle_interval must be positive",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q:\n%v", want, err)
		}
	}
}

func TestValidateEnabledBackends(t *testing.T) {
	cfg := Defaults()
	cfg.Postgres.Enabled = true
	cfg.Postgres.Host = ""
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = ""
	cfg.S3.Enabled = true
	cfg.S3.Bucket = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation failure")
	}
	for _, want := range []string{"postgres: host", "redis: addr", "s3: bucket"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q:\n%v", want, err)
		}
	}

	// A DSN makes the per-field postgres checks moot.
	cfg = Defaults()
	cfg.Postgres.Enabled = true
	cfg.Postgres.Host = ""
	cfg.Postgres.DSN = "postgres://user:pass@db:5432/oddslens"
	if err := cfg.Validate(); err != nil {
		t.Errorf("DSN-only postgres config rejected: %v", err)
	}
}

func TestValidateTelegramPair(t *testing.T) {
	cfg := Defaults()
	cfg.Notify.TelegramToken = "123:abc"

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "telegram_token and telegram_chat_id") {
		t.Errorf("token without chat id must fail, got %v", err)
	}

	cfg.Notify.TelegramChatID = "-100200300"
	if err := cfg.Validate(); err != nil {
		t.Errorf("complete telegram pair rejected: %v", err)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
mode = "collect"

[engine]
cycle_interval = "90s"

[venues.kalshi]
enabled = false
base_url = ""

[server]
port = 9100
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mode != "collect" {
		t.Errorf("mode = %q, want collect", cfg.Mode)
	}
	if cfg.Engine.CycleInterval.Duration != 90*time.Second {
		t.Errorf("cycle interval = %v, want 90s", cfg.Engine.CycleInterval.Duration)
	}
	if cfg.Venues.Kalshi.Enabled {
		t.Error("kalshi should be disabled by the file")
	}
	// Untouched sections keep their defaults.
	if cfg.Venues.Polymarket.BaseURL != "https://gamma-api.polymarket.com" {
		t.Errorf("polymarket base url = %q, want default", cfg.Venues.Polymarket.BaseURL)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("port = %d, want 9100", cfg.Server.Port)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("merged config rejected: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("expected error for a missing config file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ODDSLENS_MODE", "once")
	t.Setenv("ODDSLENS_SERVER_PORT", "9200")
	t.Setenv("ODDSLENS_ENGINE_CYCLE_INTERVAL", "30s")
	t.Setenv("ODDSLENS_REDIS_ENABLED", "true")
	t.Setenv("ODDSLENS_SERVER_CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("ODDSLENS_NOTIFY_MIN_ARB_SPREAD", "7.5")

	cfg := Defaults()
	applyEnvOverrides(&cfg)

	if cfg.Mode != "once" {
		t.Errorf("mode = %q, want once", cfg.Mode)
	}
	if cfg.Server.Port != 9200 {
		t.Errorf("port = %d, want 9200", cfg.Server.Port)
	}
	if cfg.Engine.CycleInterval.Duration != 30*time.Second {
		t.Errorf("cycle interval = %v, want 30s", cfg.Engine.CycleInterval.Duration)
	}
	if !cfg.Redis.Enabled {
		t.Error("redis not enabled by env override")
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example.com" {
		t.Errorf("cors origins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Notify.MinArbSpread != 7.5 {
		t.Errorf("min arb spread = %f, want 7.5", cfg.Notify.MinArbSpread)
	}
}

func TestEnvOverridesIgnoreMalformedValues(t *testing.T) {
	t.Setenv("ODDSLENS_SERVER_PORT", "not-a-number")
	t.Setenv("ODDSLENS_ENGINE_CYCLE_INTERVAL", "soon")

	cfg := Defaults()
	applyEnvOverrides(&cfg)

	if cfg.Server.Port != 8000 {
		t.Errorf("port = %d, want untouched default 8000", cfg.Server.Port)
	}
	if cfg.Engine.CycleInterval.Duration != 5*time.Minute {
		t.Errorf("cycle interval = %v, want untouched default", cfg.Engine.CycleInterval.Duration)
	}
}

func TestDurationUnmarshalText(t *testing.T) {
	var d duration
	if err := d.UnmarshalText([]byte("2m30s")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if d.Duration != 2*time.Minute+30*time.Second {
		t.Errorf("parsed %v, want 2m30s", d.Duration)
	}
	if err := d.UnmarshalText([]byte("eventually")); err == nil {
		t.Error("expected parse error")
	}
}
