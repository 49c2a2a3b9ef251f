package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sandeepkv93/product-catalog-api/internal/config"
	"github.com/sandeepkv93/product-catalog-api/internal/observability"
)

// sqliteScheme selects the embedded SQLite driver for local runs, e.g. sqlite://catalog.db.
const sqliteScheme = "sqlite://"

func Open(cfg *config.Config) (*gorm.DB, error) {
	ctx := context.Background()
	start := time.Now()
	defer func() {
		observability.RecordDatabaseStartupDuration(ctx, "connect", time.Since(start))
	}()

	db, err := gorm.Open(dialector(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		observability.RecordDatabaseStartupEvent(ctx, "connect", "error")
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		observability.RecordDatabaseStartupEvent(ctx, "connect", "error")
		return nil, fmt.Errorf("database handle: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		observability.RecordDatabaseStartupEvent(ctx, "connect", "error")
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	observability.InstrumentGormDB(db, slog.Default())
	observability.RecordDatabaseStartupEvent(ctx, "connect", "success")
	slog.Info("database connected", "driver", db.Dialector.Name())
	return db, nil
}

func dialector(dsn string) gorm.Dialector {
	if path, ok := strings.CutPrefix(dsn, sqliteScheme); ok {
		return sqlite.Open(path)
	}
	return postgres.Open(dsn)
}
