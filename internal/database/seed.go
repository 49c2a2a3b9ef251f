package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sandeepkv93/product-catalog-api/internal/domain"
	"github.com/sandeepkv93/product-catalog-api/internal/observability"
)

type SeedReport struct {
	CreatedProducts int  `json:"created_products"`
	SkippedProducts int  `json:"skipped_products"`
	Noop            bool `json:"noop"`
}

func strPtr(v string) *string { return &v }

// DemoCatalog returns a fresh copy of the demo products.
func DemoCatalog() []domain.Product {
	return []domain.Product{
		{
			Title:    "Camiseta Básica",
			Price:    decimal.RequireFromString("49.90"),
			Category: strPtr("roupas"),
			Colors:   domain.StringList{"branco", "preto"},
			Quantity: 25,
			Sizes:    domain.StringList{"P", "M", "G"},
		},
		{
			Title:    "Calça Jeans",
			Price:    decimal.RequireFromString("129.00"),
			Category: strPtr("roupas"),
			Colors:   domain.StringList{"azul"},
			Quantity: 10,
			Sizes:    domain.StringList{"38", "40", "42"},
		},
		{
			Title:    "Tênis Casual",
			Price:    decimal.RequireFromString("219.99"),
			Category: strPtr("calçados"),
			Colors:   domain.StringList{"branco"},
			Quantity: 8,
			Sizes:    domain.StringList{"39", "40", "41", "42"},
		},
		{
			Title:    "Boné Aba Curva",
			Price:    decimal.RequireFromString("59.90"),
			Category: strPtr("acessórios"),
			Quantity: 15,
		},
	}
}

// Seed inserts the demo catalog. Products whose title already exists are left untouched.
func Seed(db *gorm.DB) (*SeedReport, error) {
	ctx := context.Background()
	start := time.Now()
	defer func() {
		observability.RecordDatabaseStartupDuration(ctx, "seed", time.Since(start))
	}()

	report := &SeedReport{}
	for _, p := range DemoCatalog() {
		var existing domain.Product
		err := db.WithContext(ctx).Where("title = ?", p.Title).First(&existing).Error
		switch {
		case err == nil:
			report.SkippedProducts++
			continue
		case !errors.Is(err, gorm.ErrRecordNotFound):
			observability.RecordDatabaseStartupEvent(ctx, "seed", "error")
			return nil, fmt.Errorf("lookup %q: %w", p.Title, err)
		}
		if err := db.WithContext(ctx).Create(&p).Error; err != nil {
			observability.RecordDatabaseStartupEvent(ctx, "seed", "error")
			return nil, fmt.Errorf("create %q: %w", p.Title, err)
		}
		report.CreatedProducts++
	}

	report.Noop = report.CreatedProducts == 0
	observability.RecordDatabaseStartupEvent(ctx, "seed", "success")
	return report, nil
}
