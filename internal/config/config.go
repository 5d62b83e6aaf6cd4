package config

import (
	"time"

	"github.com/shopspring/decimal"
)

type PostgresConfig struct {
	DSN             string        `env:"PG_DSN"`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS" default:"5"`
	ConnMaxIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME" default:"5m"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME" default:"1h"`
}

// TebexConfig configures the storefront client and the pacing in front of it.
type TebexConfig struct {
	BaseURL     string        `env:"TEBEX_BASE_URL" default:"https://plugin.tebex.io"`
	Secret      string        `env:"TEBEX_SECRET"`
	MinInterval time.Duration `env:"TEBEX_MIN_INTERVAL" default:"1500ms"`
	CallTimeout time.Duration `env:"REMOTE_CALL_TIMEOUT" default:"10s"`
}

type RatesConfig struct {
	BaseURL string          `env:"OXR_BASE_URL" default:"https://openexchangerates.org"`
	AppID   string          `env:"OXR_APP_ID"`
	Floor   decimal.Decimal `env:"RATE_FLOOR" default:"100"`
}

type AlertConfig struct {
	WebhookURL string        `env:"DISCORD_WEBHOOK_ON_ERROR" default:""`
	Timeout    time.Duration `env:"ALERT_TIMEOUT" default:"5s"`
}

type PlayersConfig struct {
	BaseURL string `env:"MOJANG_BASE_URL" default:"https://api.mojang.com"`
}

type TracingConfig struct {
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" default:""`
	ServiceName  string `env:"OTEL_SERVICE_NAME" default:"couponsync"`
}
