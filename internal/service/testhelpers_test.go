package service

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"sync"
)

var (
	pngFixture  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")
	jpegFixture = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")
)

func pngDataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngFixture)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeMediaGateway records calls and hosts assets in memory under folder.
type fakeMediaGateway struct {
	mu         sync.Mutex
	folder     string
	baseURL    string
	uploadErr  error
	destroyErr error
	pingErr    error
	uploads    []string
	destroyed  []string
	nextName   int
}

func (f *fakeMediaGateway) Upload(ctx context.Context, file string) (*MediaAsset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, file)
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.nextName++
	id := f.folder + "/asset" + string(rune('a'+f.nextName-1))
	return &MediaAsset{Identifier: id, URL: f.baseURL + "/v1/" + id + ".png"}, nil
}

func (f *fakeMediaGateway) Destroy(ctx context.Context, identifier string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed = append(f.destroyed, identifier)
	return f.destroyErr
}

func (f *fakeMediaGateway) Ping(ctx context.Context) error {
	return f.pingErr
}
