package service

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type fakeCloudinaryUpload struct {
	uploadFile    interface{}
	uploadParams  uploader.UploadParams
	uploadResult  *uploader.UploadResult
	uploadErr     error
	destroyParams uploader.DestroyParams
	destroyResult *uploader.DestroyResult
	destroyErr    error
}

func (f *fakeCloudinaryUpload) Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error) {
	f.uploadFile = file
	f.uploadParams = params
	return f.uploadResult, f.uploadErr
}

func (f *fakeCloudinaryUpload) Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error) {
	f.destroyParams = params
	return f.destroyResult, f.destroyErr
}

type fakeCloudinaryAdmin struct {
	result *admin.PingResult
	err    error
}

func (f *fakeCloudinaryAdmin) Ping(ctx context.Context) (*admin.PingResult, error) {
	return f.result, f.err
}

func newCloudinaryGatewayForTest(up *fakeCloudinaryUpload) *CloudinaryMediaGateway {
	return &CloudinaryMediaGateway{upload: up, admin: &fakeCloudinaryAdmin{}, folder: "produtos"}
}

func TestCloudinaryUploadUsesFolderAndReturnsSecureURL(t *testing.T) {
	up := &fakeCloudinaryUpload{uploadResult: &uploader.UploadResult{
		PublicID:  "produtos/xk2j9",
		SecureURL: "https://res.cloudinary.com/demo/image/upload/v1/produtos/xk2j9.png",
	}}
	g := newCloudinaryGatewayForTest(up)

	asset, err := g.Upload(context.Background(), pngDataURI())
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if up.uploadParams.Folder != "produtos" {
		t.Fatalf("expected folder produtos, got %q", up.uploadParams.Folder)
	}
	if s, _ := up.uploadFile.(string); !strings.HasPrefix(s, "data:image/png;base64,") {
		t.Fatalf("expected data uri sent upstream, got %v", up.uploadFile)
	}
	if asset.URL != up.uploadResult.SecureURL || asset.Identifier != "produtos/xk2j9" {
		t.Fatalf("unexpected asset: %+v", asset)
	}
	if id, ok := NewPathSegmentExtractor("produtos").Extract(asset.URL); !ok || id != asset.Identifier {
		t.Fatalf("round trip failed: extracted %q want %q", id, asset.Identifier)
	}
}

func TestCloudinaryUploadPassesRemoteURLThrough(t *testing.T) {
	up := &fakeCloudinaryUpload{uploadResult: &uploader.UploadResult{PublicID: "produtos/r", SecureURL: "https://cdn/produtos/r.jpg"}}
	g := newCloudinaryGatewayForTest(up)

	if _, err := g.Upload(context.Background(), "https://example.com/photo.jpg"); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if up.uploadFile != "https://example.com/photo.jpg" {
		t.Fatalf("expected remote url forwarded, got %v", up.uploadFile)
	}
}

func TestCloudinaryUploadForwardsFormatsOutsideMinIOAllowList(t *testing.T) {
	cases := map[string]string{
		"bmp": "data:image/bmp;base64," + base64.StdEncoding.EncodeToString([]byte("BM\x3a\x00\x00\x00\x00\x00\x00\x00\x36\x00\x00\x00")),
		"svg": "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(`<svg xmlns="http://www.w3.org/2000/svg" width="1" height="1"/>`)),
	}
	for name, file := range cases {
		up := &fakeCloudinaryUpload{uploadResult: &uploader.UploadResult{
			PublicID:  "produtos/" + name,
			SecureURL: "https://res.cloudinary.com/demo/image/upload/v1/produtos/" + name + "." + name,
		}}
		if _, err := newCloudinaryGatewayForTest(up).Upload(context.Background(), file); err != nil {
			t.Fatalf("%s: upload: %v", name, err)
		}
		if up.uploadFile != file {
			t.Fatalf("%s: expected data uri forwarded unchanged, got %v", name, up.uploadFile)
		}
	}
}

func TestCloudinaryUploadRejectsNonImageDataURI(t *testing.T) {
	up := &fakeCloudinaryUpload{}
	file := "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("hello world"))
	if _, err := newCloudinaryGatewayForTest(up).Upload(context.Background(), file); !errors.Is(err, ErrInvalidMediaPayload) {
		t.Fatalf("expected ErrInvalidMediaPayload, got %v", err)
	}
	if up.uploadFile != nil {
		t.Fatal("non-image payload must not reach cloudinary")
	}
}

func TestCloudinaryUploadRequestsFolderPrefixedPublicID(t *testing.T) {
	up := &fakeCloudinaryUpload{uploadResult: &uploader.UploadResult{
		PublicID:  "xk2j9",
		SecureURL: "https://res.cloudinary.com/demo/image/upload/v1/xk2j9.png",
	}}
	g := newCloudinaryGatewayForTest(up)

	_, err := g.Upload(context.Background(), pngDataURI())
	if !errors.Is(err, ErrMediaUploadFailed) {
		t.Fatalf("expected ErrMediaUploadFailed for unprefixed public id, got %v", err)
	}
	if up.uploadParams.AssetFolder != "produtos" || up.uploadParams.UseAssetFolderAsPublicIDPrefix == nil || !*up.uploadParams.UseAssetFolderAsPublicIDPrefix {
		t.Fatalf("expected asset folder used as public id prefix, got %+v", up.uploadParams)
	}
	if up.destroyParams.PublicID != "xk2j9" {
		t.Fatalf("expected orphaned asset destroyed, got %q", up.destroyParams.PublicID)
	}
}

func TestCloudinaryUploadFailures(t *testing.T) {
	cases := map[string]*fakeCloudinaryUpload{
		"transport": {uploadErr: errors.New("dial tcp: timeout")},
		"api error": {uploadResult: &uploader.UploadResult{Error: api.ErrorResp{Message: "Invalid image file"}}},
		"empty":     {uploadResult: &uploader.UploadResult{}},
	}
	for name, up := range cases {
		g := newCloudinaryGatewayForTest(up)
		if _, err := g.Upload(context.Background(), pngDataURI()); !errors.Is(err, ErrMediaUploadFailed) {
			t.Fatalf("%s: expected ErrMediaUploadFailed, got %v", name, err)
		}
	}

	up := &fakeCloudinaryUpload{}
	g := newCloudinaryGatewayForTest(up)
	if _, err := g.Upload(context.Background(), "/etc/passwd"); !errors.Is(err, ErrInvalidMediaPayload) {
		t.Fatalf("expected local paths rejected, got %v", err)
	}
	if up.uploadFile != nil {
		t.Fatal("invalid payload must not reach cloudinary")
	}
}

func TestCloudinaryDestroy(t *testing.T) {
	for _, result := range []string{"ok", "not found"} {
		up := &fakeCloudinaryUpload{destroyResult: &uploader.DestroyResult{Result: result}}
		g := newCloudinaryGatewayForTest(up)
		if err := g.Destroy(context.Background(), "produtos/abc123"); err != nil {
			t.Fatalf("result %q: unexpected error %v", result, err)
		}
		if up.destroyParams.PublicID != "produtos/abc123" {
			t.Fatalf("unexpected public id %q", up.destroyParams.PublicID)
		}
		if up.destroyParams.Invalidate == nil || !*up.destroyParams.Invalidate {
			t.Fatal("expected cdn invalidation requested")
		}
	}

	up := &fakeCloudinaryUpload{destroyResult: &uploader.DestroyResult{Result: "error"}}
	if err := newCloudinaryGatewayForTest(up).Destroy(context.Background(), "produtos/abc123"); !errors.Is(err, ErrMediaDestroyFailed) {
		t.Fatalf("expected ErrMediaDestroyFailed, got %v", err)
	}
	up = &fakeCloudinaryUpload{destroyErr: errors.New("503")}
	if err := newCloudinaryGatewayForTest(up).Destroy(context.Background(), "produtos/abc123"); !errors.Is(err, ErrMediaDestroyFailed) {
		t.Fatalf("expected ErrMediaDestroyFailed on transport error, got %v", err)
	}
}

func TestCloudinaryPing(t *testing.T) {
	g := &CloudinaryMediaGateway{upload: &fakeCloudinaryUpload{}, admin: &fakeCloudinaryAdmin{result: &admin.PingResult{Status: "ok"}}}
	if err := g.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	g.admin = &fakeCloudinaryAdmin{err: errors.New("401")}
	if err := g.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error")
	}
}
