package envconf

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type nested struct {
	Secret string `env:"ENVCONF_TEST_SECRET"`
}

type testConfig struct {
	Port     uint16          `env:"ENVCONF_TEST_PORT"`
	Level    slog.Level      `env:"ENVCONF_TEST_LEVEL" default:"INFO"`
	Interval time.Duration   `env:"ENVCONF_TEST_INTERVAL" default:"1500ms"`
	Floor    decimal.Decimal `env:"ENVCONF_TEST_FLOOR" default:"100"`
	Webhook  string          `env:"ENVCONF_TEST_WEBHOOK" default:""`
	Nested   nested
}

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("ENVCONF_TEST_PORT", "8080")
	t.Setenv("ENVCONF_TEST_SECRET", "s3cret")
	t.Setenv("ENVCONF_TEST_FLOOR", "110.5")

	cfg := new(testConfig)

	err := Load(cfg)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != 8080 {
		t.Fatalf("port: want 8080, got %d", cfg.Port)
	}

	if cfg.Level != slog.LevelInfo {
		t.Fatalf("level: want INFO, got %v", cfg.Level)
	}

	if cfg.Interval != 1500*time.Millisecond {
		t.Fatalf("interval: want 1.5s, got %v", cfg.Interval)
	}

	if !cfg.Floor.Equal(decimal.RequireFromString("110.5")) {
		t.Fatalf("floor: want 110.5, got %s", cfg.Floor)
	}

	if cfg.Webhook != "" {
		t.Fatalf("webhook: want empty, got %q", cfg.Webhook)
	}

	if cfg.Nested.Secret != "s3cret" {
		t.Fatalf("nested secret: want s3cret, got %q", cfg.Nested.Secret)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("ENVCONF_TEST_SECRET", "s3cret")

	err := Load(new(testConfig))
	if !errors.Is(err, ErrMissingRequired) {
		t.Fatalf("want ErrMissingRequired, got %v", err)
	}
}

func TestLoad_RejectsNonPointer(t *testing.T) {
	t.Parallel()

	err := Load(testConfig{})
	if err == nil {
		t.Fatalf("expected error for non-pointer destination")
	}
}
