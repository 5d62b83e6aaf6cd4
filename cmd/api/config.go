package main

import (
	"log/slog"
	"time"

	"github.com/fastprodman/couponsync/internal/app"
	"github.com/fastprodman/couponsync/internal/config"
)

type apiConfig struct {
	Port            uint16        `env:"API_PORT" default:"8080"`
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL" default:"INFO"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"30s"`
	// a renewal run answers only when it's done
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" default:"30m"`

	Infra   app.InfraConfig
	Rates   config.RatesConfig
	Players config.PlayersConfig
}
