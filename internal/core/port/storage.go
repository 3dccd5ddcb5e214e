package port

import (
	"context"
	"io"
)

// ArtifactStorage is an interface to define artifact storage interactions
type ArtifactStorage interface {
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	DeletePrefix(ctx context.Context, prefix string) error
}
