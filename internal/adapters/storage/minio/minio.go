package minio

import (
	"context"
	"errors"
	"fmt"
	"formatwave/internal/config"
	"formatwave/internal/core/domain"
	"io"
	"log/slog"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Adapter stores artifacts in a minio (or any S3 compatible) bucket
type Adapter struct {
	client *minio.Client
	config config.MinioConfig
	logger *slog.Logger
}

// NewAdapter returns Adapter, creating the bucket when missing
func NewAdapter(ctx context.Context, cfg config.MinioConfig, logger *slog.Logger) (*Adapter, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check if bucket exists: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &Adapter{client: client, config: cfg, logger: logger}, nil
}

// Put uploads an artifact
func (a *Adapter) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	_, err := a.client.PutObject(ctx, a.config.BucketName, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("%w: failed to put object %s: %v", domain.ErrStorage, key, err)
	}
	return nil
}

// Open retrieves an artifact. The object is stat'ed first so a missing key fails here
// and not on the first read.
func (a *Adapter) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	object, err := a.client.GetObject(ctx, a.config.BucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}

	if _, err := object.Stat(); err != nil {
		_ = object.Close()
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to stat object: %w", err)
	}
	return object, nil
}

// DeletePrefix removes every object under prefix. Deleting an empty prefix is not an error.
func (a *Adapter) DeletePrefix(ctx context.Context, prefix string) error {
	objects := make(chan minio.ObjectInfo)
	var listErr error

	go func() {
		defer close(objects)
		for object := range a.client.ListObjects(ctx, a.config.BucketName, minio.ListObjectsOptions{
			Prefix:    prefix,
			Recursive: true,
		}) {
			if object.Err != nil {
				listErr = object.Err
				return
			}
			select {
			case objects <- object:
			case <-ctx.Done():
				return
			}
		}
	}()

	var removeErr error
	for result := range a.client.RemoveObjects(ctx, a.config.BucketName, objects, minio.RemoveObjectsOptions{}) {
		if result.Err != nil && removeErr == nil {
			removeErr = fmt.Errorf("failed to remove object %s: %w", result.ObjectName, result.Err)
		}
	}

	if listErr != nil {
		return fmt.Errorf("failed to list objects under %s: %w", prefix, listErr)
	}
	if removeErr != nil {
		return removeErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	a.logger.Debug("prefix deleted", "bucket", a.config.BucketName, "prefix", prefix)
	return nil
}

func isNotFound(err error) bool {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
	}
	return false
}
