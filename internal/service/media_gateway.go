package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/sandeepkv93/product-catalog-api/internal/observability"
)

//go:generate mockgen -source=media_gateway.go -destination=gomock/media_gateway_mock.go -package=gomock

var (
	ErrMediaUploadFailed         = errors.New("media upload failed")
	ErrMediaDestroyFailed        = errors.New("media destroy failed")
	ErrProductImageCleanupFailed = errors.New("product image cleanup failed")
)

// MediaAsset is a hosted image. Identifier is what Destroy expects and is
// always recoverable from URL by the folder's PathSegmentExtractor.
type MediaAsset struct {
	Identifier string
	URL        string
}

type MediaGateway interface {
	Upload(ctx context.Context, file string) (*MediaAsset, error)
	Destroy(ctx context.Context, identifier string) error
	Ping(ctx context.Context) error
}

// InstrumentedMediaGateway records media.operation metrics and spans around
// every call to the wrapped gateway.
type InstrumentedMediaGateway struct {
	next     MediaGateway
	provider string
}

func NewInstrumentedMediaGateway(next MediaGateway, provider string) *InstrumentedMediaGateway {
	return &InstrumentedMediaGateway{next: next, provider: provider}
}

func (g *InstrumentedMediaGateway) Upload(ctx context.Context, file string) (asset *MediaAsset, err error) {
	ctx, span := observability.StartSpan(ctx, "media.upload", attribute.String("media.provider", g.provider))
	start := time.Now()
	defer func() {
		if asset != nil {
			span.SetAttributes(attribute.String("media.identifier", asset.Identifier))
		}
		observability.RecordMediaOperation(ctx, g.provider, "upload", mediaOutcome(err), time.Since(start))
		observability.EndSpan(span, err)
	}()
	return g.next.Upload(ctx, file)
}

func (g *InstrumentedMediaGateway) Destroy(ctx context.Context, identifier string) (err error) {
	ctx, span := observability.StartSpan(ctx, "media.destroy",
		attribute.String("media.provider", g.provider),
		attribute.String("media.identifier", identifier),
	)
	start := time.Now()
	defer func() {
		observability.RecordMediaOperation(ctx, g.provider, "destroy", mediaOutcome(err), time.Since(start))
		observability.EndSpan(span, err)
	}()
	return g.next.Destroy(ctx, identifier)
}

func (g *InstrumentedMediaGateway) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() {
		observability.RecordMediaOperation(ctx, g.provider, "ping", mediaOutcome(err), time.Since(start))
	}()
	return g.next.Ping(ctx)
}

func mediaOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInvalidMediaPayload):
		return "invalid_payload"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "error"
	}
}
