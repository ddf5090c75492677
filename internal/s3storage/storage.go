// Package s3storage is the BlobStore backed by MinIO or any S3-compatible
// object store. Blobs are stored under their content hash.
package s3storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/dharsanguruparan/PixelDrop/internal/config"
	"github.com/dharsanguruparan/PixelDrop/internal/storage"
)

// Storage wraps MinIO/S3 interactions for the image bucket.
type Storage struct {
	client *minio.Client
	bucket string
	region string
}

var _ storage.BlobStore = (*Storage)(nil)

// New creates a MinIO client from the Config.
func New(cfg *config.Config) (*Storage, error) {
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	return &Storage{client: client, bucket: cfg.BlobBucket, region: cfg.S3Region}, nil
}

// EnsureBucket makes sure the image bucket exists before use.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("make bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Write uploads data under hash.
func (s *Storage) Write(ctx context.Context, hash string, data []byte, contentType string) error {
	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := s.client.PutObject(ctx, s.bucket, hash, bytes.NewReader(data), int64(len(data)), opts); err != nil {
		return fmt.Errorf("put object %s: %w", hash, err)
	}
	return nil
}

// Read downloads the blob. A missing key wraps storage.ErrNotFound.
func (s *Storage) Read(ctx context.Context, hash string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, hash, minio.GetObjectOptions{})
	if err != nil {
		return nil, classify("get object", hash, err)
	}
	defer obj.Close()
	// GetObject is lazy; the NoSuchKey error surfaces on the first read.
	buf, err := io.ReadAll(obj)
	if err != nil {
		return nil, classify("read object", hash, err)
	}
	return buf, nil
}

// Delete removes the blob. S3 deletes are idempotent, so the key is checked
// first to report storage.ErrNotFound for a missing blob.
func (s *Storage) Delete(ctx context.Context, hash string) error {
	if _, err := s.client.StatObject(ctx, s.bucket, hash, minio.StatObjectOptions{}); err != nil {
		return classify("stat object", hash, err)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, hash, minio.RemoveObjectOptions{}); err != nil {
		return classify("remove object", hash, err)
	}
	return nil
}

// Exists reports whether a blob is stored under hash.
func (s *Storage) Exists(ctx context.Context, hash string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, hash, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat object %s: %w", hash, err)
}

func classify(op, hash string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%s %s: %w", op, hash, storage.ErrNotFound)
	}
	return fmt.Errorf("%s %s: %w", op, hash, err)
}

func isNotFound(err error) bool {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return resp.Code == "NoSuchKey" || resp.StatusCode == 404
	}
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
