// Command importer copies the storefront's fixed-price packages into the
// local catalog.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fastprodman/couponsync/internal/app"
	"github.com/fastprodman/couponsync/internal/infra/logging"
	"github.com/fastprodman/couponsync/pkg/envconf"
	"github.com/fastprodman/couponsync/pkg/shutdownqueue"
)

type importerConfig struct {
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL" default:"INFO"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"30s"`

	Infra app.InfraConfig
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running importer: %v\n", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	cfg := new(importerConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.SetupJSON(cfg.LogLevel, "importer")

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	infra, err := app.NewInfra(ctx, cfg.Infra)
	if err != nil {
		return err
	}

	_, err = infra.CatalogService().Import(ctx)
	if err != nil {
		return fmt.Errorf("import packages: %w", err)
	}

	return nil
}
