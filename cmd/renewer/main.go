// Command renewer runs one renewal pass and exits. Schedule it externally,
// e.g. from cron or a Kubernetes CronJob.
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
	"github.com/fastprodman/couponsync/internal/config"
	"github.com/fastprodman/couponsync/internal/infra/logging"
	"github.com/fastprodman/couponsync/pkg/envconf"
	"github.com/fastprodman/couponsync/pkg/shutdownqueue"
)

type renewerConfig struct {
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL" default:"INFO"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"30s"`

	Infra app.InfraConfig
	Rates config.RatesConfig
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running renewer: %v\n", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	cfg := new(renewerConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.SetupJSON(cfg.LogLevel, "renewer")

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

	engine := infra.RenewalEngine(cfg.Rates, cfg.Infra.Tebex.CallTimeout)

	rep, err := engine.Run(ctx)
	if err != nil {
		return fmt.Errorf("renewal run %s: %w", rep.RunID, err)
	}

	return nil
}
