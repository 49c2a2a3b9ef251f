package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/sandeepkv93/product-catalog-api/internal/domain"
)

type repoFactory func(t *testing.T) ProductRepository

func productStores() map[string]repoFactory {
	return map[string]repoFactory{
		"gorm": func(t *testing.T) ProductRepository {
			return NewProductRepository(newRepositoryDBForTest(t))
		},
		"memory": func(t *testing.T) ProductRepository {
			return NewMemoryProductRepository()
		},
	}
}

func sampleProduct(title string) *domain.Product {
	return &domain.Product{
		Title:    title,
		Price:    decimal.RequireFromString("10.50"),
		Image:    strPtr("https://res.cloudinary.com/demo/image/upload/v1/produtos/abc123.jpg"),
		Category: strPtr("camisetas"),
		Colors:   domain.StringList{"red", "blue"},
		Quantity: 5,
		Sizes:    domain.StringList{"M", "G"},
	}
}

func TestProductRepositoryCRUD(t *testing.T) {
	for name, newRepo := range productStores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := newRepo(t)

			created := make([]*domain.Product, 0, 3)
			for i := 0; i < 3; i++ {
				p := sampleProduct(fmt.Sprintf("Product %c", 'A'+i))
				if err := repo.Create(ctx, p); err != nil {
					t.Fatalf("create product %d: %v", i, err)
				}
				if p.ID == 0 {
					t.Fatalf("expected id assigned on create %d", i)
				}
				created = append(created, p)
			}

			list, err := repo.List(ctx)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(list) != 3 {
				t.Fatalf("expected 3 products, got %d", len(list))
			}
			for i := range list {
				if list[i].ID != created[i].ID {
					t.Fatalf("expected insertion order, got id=%d at %d want=%d", list[i].ID, i, created[i].ID)
				}
			}

			loaded, err := repo.FindByID(ctx, created[0].ID)
			if err != nil {
				t.Fatalf("find by id: %v", err)
			}
			if loaded.Title != created[0].Title || !loaded.Price.Equal(created[0].Price) || loaded.Quantity != 5 {
				t.Fatalf("unexpected loaded product: %+v", loaded)
			}
			if loaded.Image == nil || *loaded.Image != *created[0].Image {
				t.Fatalf("image mismatch: %+v", loaded.Image)
			}
			if len(loaded.Colors) != 2 || loaded.Colors[1] != "blue" || len(loaded.Sizes) != 2 {
				t.Fatalf("array fields mismatch: colors=%v sizes=%v", loaded.Colors, loaded.Sizes)
			}

			replacement := &domain.Product{Title: "Renamed", Price: decimal.RequireFromString("99.90"), Quantity: 2}
			updated, err := repo.Replace(ctx, created[0].ID, replacement)
			if err != nil {
				t.Fatalf("replace: %v", err)
			}
			if updated.ID != created[0].ID || updated.Title != "Renamed" || updated.Quantity != 2 {
				t.Fatalf("unexpected replaced product: %+v", updated)
			}
			if updated.Image != nil || updated.Category != nil || len(updated.Colors) != 0 {
				t.Fatalf("expected omitted fields cleared by full replacement: %+v", updated)
			}
			reloaded, err := repo.FindByID(ctx, created[0].ID)
			if err != nil {
				t.Fatalf("find replaced: %v", err)
			}
			if reloaded.Title != "Renamed" || !reloaded.Price.Equal(decimal.RequireFromString("99.9")) {
				t.Fatalf("replacement not persisted: %+v", reloaded)
			}

			if err := repo.DeleteByID(ctx, created[1].ID); err != nil {
				t.Fatalf("delete by id: %v", err)
			}
			if _, err := repo.FindByID(ctx, created[1].ID); !errors.Is(err, ErrProductNotFound) {
				t.Fatalf("expected not found after delete, got %v", err)
			}
		})
	}
}

func TestProductRepositoryNotFoundCases(t *testing.T) {
	for name, newRepo := range productStores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := newRepo(t)

			if _, err := repo.FindByID(ctx, 999); !errors.Is(err, ErrProductNotFound) {
				t.Fatalf("expected ErrProductNotFound, got %v", err)
			}
			if _, err := repo.Replace(ctx, 999, sampleProduct("x")); !errors.Is(err, ErrProductNotFound) {
				t.Fatalf("expected ErrProductNotFound on replace, got %v", err)
			}
			if err := repo.DeleteByID(ctx, 999); !errors.Is(err, ErrProductNotFound) {
				t.Fatalf("expected ErrProductNotFound on delete, got %v", err)
			}
			list, err := repo.List(ctx)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(list) != 0 {
				t.Fatalf("replace on missing id must not create a record, got %d", len(list))
			}
		})
	}
}

func TestProductRepositoryNeverReusesIDs(t *testing.T) {
	for name, newRepo := range productStores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := newRepo(t)

			first := sampleProduct("first")
			second := sampleProduct("second")
			if err := repo.Create(ctx, first); err != nil {
				t.Fatalf("create first: %v", err)
			}
			if err := repo.Create(ctx, second); err != nil {
				t.Fatalf("create second: %v", err)
			}
			if err := repo.DeleteByID(ctx, second.ID); err != nil {
				t.Fatalf("delete second: %v", err)
			}
			third := sampleProduct("third")
			if err := repo.Create(ctx, third); err != nil {
				t.Fatalf("create third: %v", err)
			}
			if third.ID <= second.ID {
				t.Fatalf("expected id after %d, got %d", second.ID, third.ID)
			}
		})
	}
}

func TestProductRepositoryEmptyListIsNotNil(t *testing.T) {
	for name, newRepo := range productStores() {
		t.Run(name, func(t *testing.T) {
			list, err := newRepo(t).List(context.Background())
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if list == nil {
				t.Fatal("expected empty slice, got nil")
			}
		})
	}
}

func TestProductRepositoryCreateReturnsStoredRow(t *testing.T) {
	ctx := context.Background()
	db := newRepositoryDBForTest(t)
	// Truncate price to two decimals on insert, the way a scaled DECIMAL column does.
	if err := db.Exec(`CREATE TRIGGER products_price_scale AFTER INSERT ON products
		BEGIN UPDATE products SET price = CAST(price * 100 AS INTEGER) / 100.0 WHERE id = NEW.id; END`).Error; err != nil {
		t.Fatalf("create trigger: %v", err)
	}
	repo := NewProductRepository(db)

	p := sampleProduct("Camiseta")
	p.Price = decimal.RequireFromString("10.555")
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	loaded, err := repo.FindByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if !p.Price.Equal(loaded.Price) || !loaded.Price.Equal(decimal.RequireFromString("10.55")) {
		t.Fatalf("create returned price %s, stored %s", p.Price, loaded.Price)
	}
	if p.Title != loaded.Title || p.Quantity != loaded.Quantity || len(p.Colors) != len(loaded.Colors) {
		t.Fatalf("create result %+v differs from stored %+v", p, loaded)
	}
}
