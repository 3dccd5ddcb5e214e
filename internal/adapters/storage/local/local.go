package local

import (
	"context"
	"errors"
	"fmt"
	"formatwave/internal/core/domain"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Adapter stores artifacts on the local filesystem, one directory per session prefix
type Adapter struct {
	root   string
	logger *slog.Logger
}

// NewAdapter returns Adapter rooted at dir, creating it when missing
func NewAdapter(dir string, logger *slog.Logger) (*Adapter, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage dir: %w", err)
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &Adapter{root: root, logger: logger}, nil
}

// Put writes an artifact atomically: readers never observe a partial file
func (a *Adapter) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := a.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("%w: failed to create directory: %w", domain.ErrStorage, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return fmt.Errorf("%w: failed to create file: %w", domain.ErrStorage, err)
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, reader)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("%w: failed to write %s: %w", domain.ErrStorage, key, err)
	}
	if size >= 0 && written != size {
		return fmt.Errorf("%w: short write on %s: %d of %d bytes", domain.ErrStorage, key, written, size)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: failed to commit %s: %w", domain.ErrStorage, key, err)
	}
	return nil
}

// Open opens an artifact for reading
func (a *Adapter) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := a.resolve(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrObjectNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", key, err)
	}
	return file, nil
}

// DeletePrefix removes the directory backing prefix. Deleting a missing prefix is a no-op.
func (a *Adapter) DeletePrefix(ctx context.Context, prefix string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	trimmed := strings.Trim(prefix, "/")
	if trimmed == "" {
		return errors.New("refusing to delete the storage root")
	}

	path, err := a.resolve(trimmed)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to delete %s: %w", prefix, err)
	}

	a.logger.Debug("prefix deleted", "root", a.root, "prefix", prefix)
	return nil
}

// resolve maps a key to a path, refusing keys escaping the root
func (a *Adapter) resolve(key string) (string, error) {
	path := filepath.Join(a.root, filepath.FromSlash(key))
	rel, err := filepath.Rel(a.root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return path, nil
}
