package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var ErrBucketInitFailed = errors.New("failed to initialize media bucket")

type MinIOGatewayConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	Folder        string
	PublicBaseURL string
}

// MinIOMediaGateway stores product images in an S3-compatible bucket under
// "<folder>/<uuid><ext>" and serves them from PublicBaseURL.
type MinIOMediaGateway struct {
	client        *minio.Client
	bucket        string
	folder        string
	publicBaseURL string

	initMu      sync.Mutex
	bucketReady bool
}

// NewMinIOMediaGateway does not contact the server. The bucket is created on
// first upload or destroy so startup never blocks on object storage.
func NewMinIOMediaGateway(cfg MinIOGatewayConfig) (*MinIOMediaGateway, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinIOMediaGateway{
		client:        client,
		bucket:        cfg.Bucket,
		folder:        strings.Trim(cfg.Folder, "/"),
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

// ensureBucket creates the bucket with an anonymous read policy on the media
// folder. A failed attempt is retried on the next call.
func (g *MinIOMediaGateway) ensureBucket(ctx context.Context) error {
	g.initMu.Lock()
	defer g.initMu.Unlock()
	if g.bucketReady {
		return nil
	}

	exists, err := g.client.BucketExists(ctx, g.bucket)
	if err != nil {
		return fmt.Errorf("%w: check bucket existence: %v", ErrBucketInitFailed, err)
	}
	if !exists {
		if err := g.client.MakeBucket(ctx, g.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("%w: create bucket: %v", ErrBucketInitFailed, err)
		}
	}
	if err := g.client.SetBucketPolicy(ctx, g.bucket, g.publicReadPolicy()); err != nil {
		return fmt.Errorf("%w: set bucket policy: %v", ErrBucketInitFailed, err)
	}
	g.bucketReady = true
	return nil
}

func (g *MinIOMediaGateway) publicReadPolicy() string {
	return fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/%s/*"]}]}`, g.bucket, g.folder)
}

func (g *MinIOMediaGateway) Upload(ctx context.Context, file string) (*MediaAsset, error) {
	payload, err := parseMediaPayload(file, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMediaUploadFailed, err)
	}
	if err := g.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMediaUploadFailed, err)
	}

	identifier := g.folder + "/" + uuid.NewString()
	objectKey := identifier + payload.extension()
	_, err = g.client.PutObject(ctx, g.bucket, objectKey, bytes.NewReader(payload.data), int64(len(payload.data)), minio.PutObjectOptions{
		ContentType: payload.contentType,
		UserMetadata: map[string]string{
			"Detected-Content-Type": payload.contentType,
			"Uploaded-At":           time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: put object: %v", ErrMediaUploadFailed, err)
	}

	return &MediaAsset{
		Identifier: identifier,
		URL:        g.publicBaseURL + "/" + objectKey,
	}, nil
}

// Destroy removes every object stored for identifier. Nothing to remove is
// not an error.
func (g *MinIOMediaGateway) Destroy(ctx context.Context, identifier string) error {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil
	}
	if strings.Contains(identifier, "..") || !strings.HasPrefix(identifier, g.folder+"/") {
		return fmt.Errorf("%w: identifier %q is outside media folder", ErrMediaDestroyFailed, identifier)
	}
	if err := g.ensureBucket(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrMediaDestroyFailed, err)
	}

	listCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	for obj := range g.client.ListObjects(listCtx, g.bucket, minio.ListObjectsOptions{Prefix: identifier + "."}) {
		if obj.Err != nil {
			return fmt.Errorf("%w: list objects: %v", ErrMediaDestroyFailed, obj.Err)
		}
		if err := g.client.RemoveObject(ctx, g.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("%w: remove %s: %v", ErrMediaDestroyFailed, obj.Key, err)
		}
	}
	return nil
}

func (g *MinIOMediaGateway) Ping(ctx context.Context) error {
	if _, err := g.client.BucketExists(ctx, g.bucket); err != nil {
		return fmt.Errorf("minio ping: %w", err)
	}
	return nil
}
