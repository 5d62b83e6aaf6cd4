// Package app builds the infrastructure every couponsync binary shares and
// registers its teardown on the shutdown queue.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/fastprodman/couponsync/internal/alert"
	"github.com/fastprodman/couponsync/internal/commerce/tebex"
	"github.com/fastprodman/couponsync/internal/config"
	"github.com/fastprodman/couponsync/internal/gateway"
	"github.com/fastprodman/couponsync/internal/infra/pgutils"
	"github.com/fastprodman/couponsync/internal/infra/tracing"
	"github.com/fastprodman/couponsync/pkg/shutdownqueue"
)

type InfraConfig struct {
	Postgres config.PostgresConfig
	Tebex    config.TebexConfig
	Alert    config.AlertConfig
	Tracing  config.TracingConfig
}

type Infra struct {
	DB         *sql.DB
	Storefront *tebex.Client
	Alerts     *alert.Discord
}

// NewInfra opens the database, the storefront client and the alert sink.
// Teardown runs in reverse: alerts drain before the database closes and the
// tracer flushes last.
func NewInfra(ctx context.Context, cfg InfraConfig) (*Infra, error) {
	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}
	shutdownqueue.Add("tracer provider", shutdownTracing)

	db, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	shutdownqueue.Add("postgres pool", func(context.Context) error {
		slog.Info("Close database pool")
		return db.Close()
	})

	alerts := alert.NewDiscord(cfg.Alert.WebhookURL, cfg.Alert.Timeout)
	if cfg.Alert.WebhookURL == "" {
		slog.Warn("DISCORD_WEBHOOK_ON_ERROR not set, alerts are only logged")
	}
	shutdownqueue.Add("alert sink", alerts.Close)

	pacer := gateway.New(cfg.Tebex.MinInterval, cfg.Tebex.CallTimeout)

	return &Infra{
		DB:         db,
		Storefront: tebex.New(cfg.Tebex.BaseURL, cfg.Tebex.Secret, pacer),
		Alerts:     alerts,
	}, nil
}
