package config

import (
	"strings"
	"testing"
	"time"
)

// setRequired provides the channel credentials every load needs.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("LINE_CHANNEL_SECRET", "secret")
	t.Setenv("LINE_CHANNEL_ACCESS_TOKEN", "token")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.GinMode != "release" {
		t.Errorf("GinMode = %q, want release", cfg.GinMode)
	}
	if cfg.Timezone != "Asia/Taipei" {
		t.Errorf("Timezone = %q, want Asia/Taipei", cfg.Timezone)
	}
	if cfg.SweepInterval != 5*time.Minute {
		t.Errorf("SweepInterval = %v, want 5m", cfg.SweepInterval)
	}
	if cfg.DBPath != "reminders.db" || cfg.DatabaseURL != "" {
		t.Errorf("storage defaults wrong: %q %q", cfg.DBPath, cfg.DatabaseURL)
	}
	if cfg.OTEL.Enabled {
		t.Errorf("OTEL should default to disabled")
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9000")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("SWEEP_INTERVAL", "30s")
	t.Setenv("DATABASE_URL", "postgres://app:pw@db/reminders")
	t.Setenv("RATE_RPS", "2.5")
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("GIN_MODE", "bogus")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9000" || cfg.Timezone != "UTC" || cfg.SweepInterval != 30*time.Second {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.DatabaseURL == "" {
		t.Errorf("DATABASE_URL not picked up")
	}
	if cfg.RateRPS != 2.5 {
		t.Errorf("RateRPS = %v, want 2.5", cfg.RateRPS)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn (normalized)", cfg.LogLevel)
	}
	if cfg.GinMode != "release" {
		t.Errorf("GinMode = %q, want release (normalized)", cfg.GinMode)
	}
}

func TestLoadMissingChannelSecret(t *testing.T) {
	t.Setenv("LINE_CHANNEL_SECRET", "")
	t.Setenv("LINE_CHANNEL_ACCESS_TOKEN", "token")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "LINE_CHANNEL_SECRET") {
		t.Fatalf("expected channel secret error, got %v", err)
	}
}

func TestLoadInvalidSweepInterval(t *testing.T) {
	setRequired(t)
	t.Setenv("SWEEP_INTERVAL", "-1m")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "SWEEP_INTERVAL") {
		t.Fatalf("expected sweep interval error, got %v", err)
	}
}

func TestLoadBadBoolFallsBack(t *testing.T) {
	setRequired(t)
	t.Setenv("OTEL_ENABLED", "definitely")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OTEL.Enabled {
		t.Errorf("unparseable bool should fall back to default false")
	}
}
