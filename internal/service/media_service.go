package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var ErrMediaFileMissing = errors.New("no file provided")

type MediaService struct {
	gateway MediaGateway
	logger  *slog.Logger
}

func NewMediaService(gateway MediaGateway, logger *slog.Logger) *MediaService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MediaService{gateway: gateway, logger: logger}
}

// Upload hosts file and returns the stored asset. An empty payload never
// reaches the gateway.
func (s *MediaService) Upload(ctx context.Context, file string) (*MediaAsset, error) {
	if strings.TrimSpace(file) == "" {
		return nil, ErrMediaFileMissing
	}
	asset, err := s.gateway.Upload(ctx, file)
	if err != nil {
		s.logger.ErrorContext(ctx, "media upload failed", "payload_bytes", len(file), "error", err)
		if !errors.Is(err, ErrMediaUploadFailed) {
			err = fmt.Errorf("%w: %w", ErrMediaUploadFailed, err)
		}
		return nil, err
	}
	s.logger.InfoContext(ctx, "media uploaded", "media_identifier", asset.Identifier, "url", asset.URL)
	return asset, nil
}
