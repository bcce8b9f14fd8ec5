// Package s3 provides a blob store backed by any S3-compatible object
// store, MinIO included.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure BlobStore implements the interface.
var _ driven.BlobStore = (*BlobStore)(nil)

// DefaultEndpoint is the local MinIO endpoint.
const DefaultEndpoint = "localhost:9000"

// Config holds configuration for the S3 blob store.
type Config struct {
	// Endpoint is the S3 host:port (default: localhost:9000).
	Endpoint string

	// AccessKey and SecretKey authenticate the connection.
	AccessKey string
	SecretKey string

	// UseSSL enables TLS to the endpoint.
	UseSSL bool

	// Bucket, when set, is created at startup if missing.
	Bucket string
}

// BlobStore stores raw document bytes in S3-compatible object storage.
type BlobStore struct {
	client *minio.Client
}

// NewBlobStore connects to the object store and, when a bucket is
// configured, ensures it exists.
func NewBlobStore(ctx context.Context, cfg Config) (*BlobStore, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to object store: %w", err)
	}

	store := &BlobStore{client: client}
	if cfg.Bucket != "" {
		if err := store.ensureBucket(ctx, cfg.Bucket); err != nil {
			return nil, err
		}
	}
	return store, nil
}

func (s *BlobStore) ensureBucket(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %q: %w", bucket, err)
	}
	logger.Info("created bucket %q", bucket)
	return nil
}

// Get downloads an object's full contents.
func (s *BlobStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s/%s: %w", bucket, key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: object %s/%s", domain.ErrNotFound, bucket, key)
		}
		return nil, fmt.Errorf("read object %s/%s: %w", bucket, key, err)
	}
	return data, nil
}

// Put uploads an object under the caller-chosen key.
func (s *BlobStore) Put(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %s/%s: %w", bucket, key, err)
	}
	return nil
}

// Delete removes an object. Deleting a missing object succeeds.
func (s *BlobStore) Delete(ctx context.Context, bucket, key string) error {
	if err := s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object %s/%s: %w", bucket, key, err)
	}
	return nil
}
