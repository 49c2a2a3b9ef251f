package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/sandeepkv93/product-catalog-api/internal/domain"
	"github.com/sandeepkv93/product-catalog-api/internal/observability"
)

// Migrate creates the products table when it does not exist. Safe to run on every start.
func Migrate(db *gorm.DB) error {
	ctx := context.Background()
	start := time.Now()
	defer func() {
		observability.RecordDatabaseStartupDuration(ctx, "migrate", time.Since(start))
	}()

	if err := db.AutoMigrate(&domain.Product{}); err != nil {
		observability.RecordDatabaseStartupEvent(ctx, "migrate", "error")
		return fmt.Errorf("migrate products: %w", err)
	}
	observability.RecordDatabaseStartupEvent(ctx, "migrate", "success")
	slog.Info("products table ready")
	return nil
}

// PendingMigrations lists the tables Migrate would create.
func PendingMigrations(db *gorm.DB) []string {
	var pending []string
	if !db.Migrator().HasTable(&domain.Product{}) {
		pending = append(pending, "create table products")
	}
	return pending
}
