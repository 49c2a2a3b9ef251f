package service

import (
	"context"

	"github.com/sandeepkv93/product-catalog-api/internal/domain"
)

//go:generate mockgen -source=interfaces.go -destination=gomock/interfaces_mock.go -package=gomock

type ProductService interface {
	List(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id uint) (*domain.Product, error)
	Create(ctx context.Context, input ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id uint, input ProductInput) (*domain.Product, error)
	DeleteByID(ctx context.Context, id uint) error
}

type MediaUploader interface {
	Upload(ctx context.Context, file string) (*MediaAsset, error)
}

// IdentifierExtractor maps a stored image URL back to its media identifier.
type IdentifierExtractor interface {
	Extract(url string) (string, bool)
}
