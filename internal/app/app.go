package app

import (
	"log/slog"
	"net/http"

	"gorm.io/gorm"

	"github.com/sandeepkv93/product-catalog-api/internal/config"
	"github.com/sandeepkv93/product-catalog-api/internal/health"
	"github.com/sandeepkv93/product-catalog-api/internal/observability"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Server        *http.Server
	Observability *observability.Runtime
	// DB is nil when the in-memory product store is selected.
	DB        *gorm.DB
	Readiness *health.ProbeRunner
}

func New(cfg *config.Config, logger *slog.Logger, server *http.Server, runtime *observability.Runtime, db *gorm.DB, readiness *health.ProbeRunner) *App {
	return &App{Config: cfg, Logger: logger, Server: server, Observability: runtime, DB: db, Readiness: readiness}
}
