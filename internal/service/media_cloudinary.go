package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type cloudinaryUploadAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

type cloudinaryAdminAPI interface {
	Ping(ctx context.Context) (*admin.PingResult, error)
}

// CloudinaryMediaGateway uploads into a fixed folder of a Cloudinary cloud.
// Uploads whose public id lacks the folder prefix are rolled back.
type CloudinaryMediaGateway struct {
	upload cloudinaryUploadAPI
	admin  cloudinaryAdminAPI
	folder string
}

func NewCloudinaryMediaGateway(cloudName, apiKey, apiSecret, folder string) (*CloudinaryMediaGateway, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("create cloudinary client: %w", err)
	}
	return &CloudinaryMediaGateway{
		upload: &cld.Upload,
		admin:  &cld.Admin,
		folder: strings.Trim(folder, "/"),
	}, nil
}

func (g *CloudinaryMediaGateway) Upload(ctx context.Context, file string) (*MediaAsset, error) {
	payload, err := decodeMediaPayload(file, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMediaUploadFailed, err)
	}
	// Format support is left to Cloudinary; only non-image payloads stop here.
	var source string
	switch {
	case payload.remoteURL != "":
		source = payload.remoteURL
	case !strings.HasPrefix(payload.mediaType(), "image/"):
		return nil, fmt.Errorf("%w: %w: not an image (%q)", ErrMediaUploadFailed, ErrInvalidMediaPayload, payload.mediaType())
	case payload.declaredURI != "":
		source = payload.declaredURI
	default:
		source = payload.dataURI()
	}

	res, err := g.upload.Upload(ctx, source, uploader.UploadParams{
		Folder:                         g.folder,
		AssetFolder:                    g.folder,
		UseAssetFolderAsPublicIDPrefix: api.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMediaUploadFailed, err)
	}
	if res == nil {
		return nil, fmt.Errorf("%w: empty response", ErrMediaUploadFailed)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("%w: %s", ErrMediaUploadFailed, res.Error.Message)
	}
	if res.SecureURL == "" || res.PublicID == "" {
		return nil, fmt.Errorf("%w: response missing secure_url or public_id", ErrMediaUploadFailed)
	}
	// Deletes recover the public id from the URL, so it must sit under the folder.
	if !strings.HasPrefix(res.PublicID, g.folder+"/") || !strings.Contains(res.SecureURL, res.PublicID) {
		_, _ = g.upload.Destroy(ctx, uploader.DestroyParams{PublicID: res.PublicID, Invalidate: api.Bool(true)})
		return nil, fmt.Errorf("%w: public id %q is not recoverable from its url under folder %q", ErrMediaUploadFailed, res.PublicID, g.folder)
	}
	return &MediaAsset{Identifier: res.PublicID, URL: res.SecureURL}, nil
}

// Destroy invalidates CDN copies too. A "not found" result counts as
// success since the asset is already gone.
func (g *CloudinaryMediaGateway) Destroy(ctx context.Context, identifier string) error {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil
	}
	res, err := g.upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:   identifier,
		Invalidate: api.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMediaDestroyFailed, err)
	}
	if res == nil {
		return fmt.Errorf("%w: empty response", ErrMediaDestroyFailed)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("%w: %s", ErrMediaDestroyFailed, res.Error.Message)
	}
	switch res.Result {
	case "ok", "not found":
		return nil
	default:
		return fmt.Errorf("%w: unexpected result %q", ErrMediaDestroyFailed, res.Result)
	}
}

func (g *CloudinaryMediaGateway) Ping(ctx context.Context) error {
	res, err := g.admin.Ping(ctx)
	if err != nil {
		return fmt.Errorf("cloudinary ping: %w", err)
	}
	if res != nil && res.Error.Message != "" {
		return fmt.Errorf("cloudinary ping: %s", res.Error.Message)
	}
	return nil
}
