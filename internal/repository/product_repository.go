package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/sandeepkv93/product-catalog-api/internal/domain"
	"github.com/sandeepkv93/product-catalog-api/internal/observability"
)

//go:generate mockgen -source=product_repository.go -destination=gomock/product_repository_mock.go -package=gomock

var ErrProductNotFound = errors.New("product not found")

type ProductRepository interface {
	List(ctx context.Context) ([]domain.Product, error)
	FindByID(ctx context.Context, id uint) (*domain.Product, error)
	Create(ctx context.Context, product *domain.Product) error
	Replace(ctx context.Context, id uint, product *domain.Product) (*domain.Product, error)
	DeleteByID(ctx context.Context, id uint) error
}

type GormProductRepository struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	products := make([]domain.Product, 0)
	if err := r.db.WithContext(ctx).Order("id asc").Find(&products).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "product", "list", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "product", "list", "success")
	return products, nil
}

func (r *GormProductRepository) FindByID(ctx context.Context, id uint) (*domain.Product, error) {
	var product domain.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "product", "find_by_id", "not_found")
			return nil, ErrProductNotFound
		}
		observability.RecordRepositoryOperation(ctx, "product", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "product", "find_by_id", "success")
	return &product, nil
}

// Create inserts product and overwrites it with the stored row, so values the
// column types normalize (price scale) match what later reads return.
func (r *GormProductRepository) Create(ctx context.Context, product *domain.Product) error {
	product.ID = 0
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "product", "create", "error")
		return err
	}
	var stored domain.Product
	if err := r.db.WithContext(ctx).First(&stored, product.ID).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "product", "create", "error")
		return err
	}
	*product = stored
	observability.RecordRepositoryOperation(ctx, "product", "create", "success")
	return nil
}

// Replace overwrites every column except id, nulls included.
func (r *GormProductRepository) Replace(ctx context.Context, id uint, product *domain.Product) (*domain.Product, error) {
	replacement := product.Clone()
	replacement.ID = id
	res := r.db.WithContext(ctx).Model(&domain.Product{}).
		Where("id = ?", id).
		Select("*").
		Omit("id").
		Updates(&replacement)
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "product", "replace", "error")
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(ctx, "product", "replace", "not_found")
		return nil, ErrProductNotFound
	}

	var stored domain.Product
	if err := r.db.WithContext(ctx).First(&stored, id).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "product", "replace", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "product", "replace", "success")
	return &stored, nil
}

func (r *GormProductRepository) DeleteByID(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&domain.Product{}, id)
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "product", "delete_by_id", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(ctx, "product", "delete_by_id", "not_found")
		return ErrProductNotFound
	}
	observability.RecordRepositoryOperation(ctx, "product", "delete_by_id", "success")
	return nil
}
