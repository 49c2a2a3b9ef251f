package repository

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/sandeepkv93/product-catalog-api/internal/domain"
	"github.com/sandeepkv93/product-catalog-api/internal/observability"
)

// MemoryProductRepository keeps products in insertion order. Ids come from a
// counter that deletions never rewind.
type MemoryProductRepository struct {
	mu     sync.RWMutex
	items  []domain.Product
	lastID uint
}

func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{}
}

func (r *MemoryProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Product, 0, len(r.items))
	for _, p := range r.items {
		out = append(out, p.Clone())
	}
	observability.RecordRepositoryOperation(ctx, "product_memory", "list", "success")
	return out, nil
}

func (r *MemoryProductRepository) FindByID(ctx context.Context, id uint) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := r.indexOf(id)
	if idx < 0 {
		observability.RecordRepositoryOperation(ctx, "product_memory", "find_by_id", "not_found")
		return nil, ErrProductNotFound
	}
	p := r.items[idx].Clone()
	observability.RecordRepositoryOperation(ctx, "product_memory", "find_by_id", "success")
	return &p, nil
}

func (r *MemoryProductRepository) Create(ctx context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastID++
	product.ID = r.lastID
	r.items = append(r.items, product.Clone())
	observability.RecordRepositoryOperation(ctx, "product_memory", "create", "success")
	return nil
}

func (r *MemoryProductRepository) Replace(ctx context.Context, id uint, product *domain.Product) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		observability.RecordRepositoryOperation(ctx, "product_memory", "replace", "not_found")
		return nil, ErrProductNotFound
	}
	replacement := product.Clone()
	replacement.ID = id
	r.items[idx] = replacement

	out := replacement.Clone()
	observability.RecordRepositoryOperation(ctx, "product_memory", "replace", "success")
	return &out, nil
}

func (r *MemoryProductRepository) DeleteByID(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		observability.RecordRepositoryOperation(ctx, "product_memory", "delete_by_id", "not_found")
		return ErrProductNotFound
	}
	r.items = append(r.items[:idx], r.items[idx+1:]...)
	observability.RecordRepositoryOperation(ctx, "product_memory", "delete_by_id", "success")
	return nil
}

// indexOf relies on items being sorted by id, which append-only creation keeps true.
func (r *MemoryProductRepository) indexOf(id uint) int {
	idx, found := slices.BinarySearchFunc(r.items, id, func(p domain.Product, target uint) int {
		return cmp.Compare(p.ID, target)
	})
	if !found {
		return -1
	}
	return idx
}
