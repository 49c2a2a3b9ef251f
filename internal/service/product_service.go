package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sandeepkv93/product-catalog-api/internal/domain"
	"github.com/sandeepkv93/product-catalog-api/internal/observability"
	"github.com/sandeepkv93/product-catalog-api/internal/repository"
)

// ProductInput is a complete product record as sent by a client. Update
// replaces every field with these values.
type ProductInput struct {
	Title    string
	Price    decimal.Decimal
	Image    *string
	Category *string
	Colors   []string
	Quantity int
	Sizes    []string
}

func (in ProductInput) toDomain() *domain.Product {
	p := domain.Product{
		Title:    in.Title,
		Price:    in.Price,
		Image:    in.Image,
		Category: in.Category,
		Colors:   domain.StringList(in.Colors),
		Quantity: in.Quantity,
		Sizes:    domain.StringList(in.Sizes),
	}.Clone()
	return &p
}

type ProductServiceImpl struct {
	repo      repository.ProductRepository
	media     MediaGateway
	extractor IdentifierExtractor
	logger    *slog.Logger
}

func NewProductService(repo repository.ProductRepository, media MediaGateway, extractor IdentifierExtractor, logger *slog.Logger) *ProductServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProductServiceImpl{repo: repo, media: media, extractor: extractor, logger: logger}
}

func (s *ProductServiceImpl) List(ctx context.Context) ([]domain.Product, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordProductOperation(ctx, "list", outcome, time.Since(start)) }()

	products, err := s.repo.List(ctx)
	if err != nil {
		outcome = "error"
		return nil, err
	}
	return products, nil
}

func (s *ProductServiceImpl) GetByID(ctx context.Context, id uint) (*domain.Product, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordProductOperation(ctx, "get", outcome, time.Since(start)) }()

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		outcome = repoOutcome(err)
		return nil, err
	}
	return product, nil
}

func (s *ProductServiceImpl) Create(ctx context.Context, input ProductInput) (*domain.Product, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordProductOperation(ctx, "create", outcome, time.Since(start)) }()

	product := input.toDomain()
	if err := s.repo.Create(ctx, product); err != nil {
		outcome = "error"
		return nil, err
	}
	return product, nil
}

func (s *ProductServiceImpl) Update(ctx context.Context, id uint, input ProductInput) (*domain.Product, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordProductOperation(ctx, "update", outcome, time.Since(start)) }()

	product, err := s.repo.Replace(ctx, id, input.toDomain())
	if err != nil {
		outcome = repoOutcome(err)
		return nil, err
	}
	return product, nil
}

// DeleteByID destroys the product's hosted image before removing the record.
// When the image cannot be destroyed the record is kept and the error wraps
// ErrProductImageCleanupFailed. Images whose URL carries no media identifier
// are left alone.
func (s *ProductServiceImpl) DeleteByID(ctx context.Context, id uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "product.delete", attribute.Int64("product.id", int64(id)))
	start := time.Now()
	outcome := "success"
	defer func() {
		observability.RecordProductOperation(ctx, "delete", outcome, time.Since(start))
		observability.EndSpan(span, err)
	}()

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		outcome = repoOutcome(err)
		return err
	}

	if product.Image != nil && *product.Image != "" {
		identifier, ok := s.extractor.Extract(*product.Image)
		if !ok {
			s.logger.InfoContext(ctx, "product image has no media identifier, skipping cleanup",
				"product_id", id,
				"image", *product.Image,
			)
		} else if err := s.media.Destroy(ctx, identifier); err != nil {
			outcome = "image_cleanup_failed"
			s.logger.ErrorContext(ctx, "product image cleanup failed",
				"product_id", id,
				"media_identifier", identifier,
				"error", err,
			)
			return fmt.Errorf("%w: %w", ErrProductImageCleanupFailed, err)
		}
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		outcome = repoOutcome(err)
		return err
	}
	return nil
}

func repoOutcome(err error) string {
	if errors.Is(err, repository.ErrProductNotFound) {
		return "not_found"
	}
	return "error"
}
