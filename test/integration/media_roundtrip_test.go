package integration

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/sandeepkv93/product-catalog-api/internal/service"
)

func TestMinIOUploadStoresObjectWithMetadata(t *testing.T) {
	env := newMinIOIntegrationEnv(t)
	ctx := context.Background()

	asset, err := env.gateway.Upload(ctx, pngDataURI())
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(asset.Identifier, testMediaFolder+"/") {
		t.Fatalf("expected identifier under %q, got %q", testMediaFolder, asset.Identifier)
	}
	objectKey := asset.Identifier + ".png"
	if !strings.HasSuffix(asset.URL, "/"+env.bucket+"/"+objectKey) {
		t.Fatalf("unexpected url %q for key %q", asset.URL, objectKey)
	}

	obj := env.mustStatObject(t, objectKey)
	if obj.ContentType != "image/png" {
		t.Fatalf("expected content type image/png, got %q", obj.ContentType)
	}
	if obj.Size != int64(len(pngFixtureBytes())) {
		t.Fatalf("expected size %d, got %d", len(pngFixtureBytes()), obj.Size)
	}
	assertObjectMetadataContains(t, obj.UserMetadata, "detected-content-type", "image/png")
	assertObjectMetadataKeyExists(t, obj.UserMetadata, "uploaded-at")

	resp, err := http.Get(asset.URL)
	if err != nil {
		t.Fatalf("anonymous get: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected public read on uploaded image, got %d", resp.StatusCode)
	}
}

func TestMinIOIdentifierRoundTripAndDestroy(t *testing.T) {
	env := newMinIOIntegrationEnv(t)
	ctx := context.Background()
	extractor := service.NewPathSegmentExtractor(testMediaFolder)

	asset, err := env.gateway.Upload(ctx, base64.StdEncoding.EncodeToString(jpegFixtureBytes()))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	id, ok := extractor.Extract(asset.URL)
	if !ok || id != asset.Identifier {
		t.Fatalf("extract(%q) = %q, %v; want %q", asset.URL, id, ok, asset.Identifier)
	}
	if !env.mustObjectExists(t, id+".jpg") {
		t.Fatalf("expected object %q before destroy", id+".jpg")
	}

	if err := env.gateway.Destroy(ctx, id); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if keys := env.objectKeys(t, id); len(keys) != 0 {
		t.Fatalf("expected no objects under %q after destroy, got %v", id, keys)
	}
	if err := env.gateway.Destroy(ctx, id); err != nil {
		t.Fatalf("second destroy should be a no-op: %v", err)
	}
}

func TestMinIODestroyLeavesSiblingObjects(t *testing.T) {
	env := newMinIOIntegrationEnv(t)
	ctx := context.Background()

	first, err := env.gateway.Upload(ctx, pngDataURI())
	if err != nil {
		t.Fatalf("upload first: %v", err)
	}
	second, err := env.gateway.Upload(ctx, pngDataURI())
	if err != nil {
		t.Fatalf("upload second: %v", err)
	}
	if err := env.gateway.Destroy(ctx, first.Identifier); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if env.mustObjectExists(t, first.Identifier+".png") {
		t.Fatal("expected first object removed")
	}
	if !env.mustObjectExists(t, second.Identifier+".png") {
		t.Fatal("expected second object kept")
	}
}

func TestMinIODestroyRejectsIdentifierOutsideFolder(t *testing.T) {
	env := newMinIOIntegrationEnv(t)
	err := env.gateway.Destroy(context.Background(), "outros/abc123")
	if !errors.Is(err, service.ErrMediaDestroyFailed) {
		t.Fatalf("expected ErrMediaDestroyFailed, got %v", err)
	}
}

func TestMinIOUploadRejectsNonImagePayload(t *testing.T) {
	env := newMinIOIntegrationEnv(t)
	payload := base64.StdEncoding.EncodeToString([]byte("plain text, not an image"))
	_, err := env.gateway.Upload(context.Background(), payload)
	if !errors.Is(err, service.ErrMediaUploadFailed) {
		t.Fatalf("expected ErrMediaUploadFailed, got %v", err)
	}
	if keys := env.objectKeys(t, testMediaFolder+"/"); len(keys) != 0 {
		t.Fatalf("expected nothing stored, got %v", keys)
	}
}

func TestMinIOPing(t *testing.T) {
	env := newMinIOIntegrationEnv(t)
	if err := env.gateway.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func pngDataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngFixtureBytes())
}

func jpegFixtureBytes() []byte {
	return append([]byte{
		0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46,
		0x49, 0x46, 0x00, 0x01, 0x01, 0x00, 0x00, 0x01,
		0x00, 0x01, 0x00, 0x00,
	}, bytes.Repeat([]byte{0x11}, 1024)...)
}

func pngFixtureBytes() []byte {
	return append([]byte{
		0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A,
		0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52,
		0x00, 0x00, 0x00, 0x01,
	}, bytes.Repeat([]byte{0x22}, 1024)...)
}

func assertObjectMetadataContains(t *testing.T, metadata map[string]string, partialKey, expectedValue string) {
	t.Helper()
	for key, value := range metadata {
		if strings.Contains(strings.ToLower(key), strings.ToLower(partialKey)) && value == expectedValue {
			return
		}
	}
	t.Fatalf("expected metadata key containing %q with value %q, got %#v", partialKey, expectedValue, metadata)
}

func assertObjectMetadataKeyExists(t *testing.T, metadata map[string]string, partialKey string) {
	t.Helper()
	for key, value := range metadata {
		if strings.Contains(strings.ToLower(key), strings.ToLower(partialKey)) && strings.TrimSpace(value) != "" {
			return
		}
	}
	t.Fatalf("expected metadata key containing %q, got %#v", partialKey, metadata)
}
