// Package upload archives score tables as CSV artifacts in object storage.
package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

// ObjectStorage is the upload target.
type ObjectStorage interface {
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64) error
}

// MinIOStorage implements ObjectStorage against a MinIO/S3 bucket.
type MinIOStorage struct {
	client *minio.Client
	bucket string
	logger zerolog.Logger
}

// MinIOConfig carries the connection settings for NewMinIOStorage.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewMinIOStorage connects to the bucket, creating it when missing.
func NewMinIOStorage(ctx context.Context, cfg MinIOConfig, logger zerolog.Logger) (*MinIOStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		logger.Info().Str("bucket", cfg.Bucket).Msg("created artifact bucket")
	}

	return &MinIOStorage{client: client, bucket: cfg.Bucket, logger: logger}, nil
}

// Upload writes one object to the bucket.
func (s *MinIOStorage) Upload(ctx context.Context, objectName string, reader io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: "text/csv",
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", objectName, err)
	}
	s.logger.Info().Str("object", objectName).Int64("bytes", size).Msg("uploaded artifact")
	return nil
}

var _ ObjectStorage = (*MinIOStorage)(nil)

// MemoryStorage implements ObjectStorage in memory, for tests and for
// runs without a configured bucket.
type MemoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string][]byte)}
}

func (s *MemoryStorage) Upload(_ context.Context, objectName string, reader io.Reader, _ int64) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objectName] = data
	return nil
}

// Object returns a stored object's bytes, or nil when absent.
func (s *MemoryStorage) Object(objectName string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bytes.Clone(s.objects[objectName])
}

var _ ObjectStorage = (*MemoryStorage)(nil)
