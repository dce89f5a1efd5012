package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var ErrNotFound = errors.New("media object not found")

// MediaStorage keeps the bytes of media objects under opaque keys.
type MediaStorage interface {
	Put(ctx context.Context, key string, data []byte) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

const DefaultDirectory = "data/media"

// LocalBackend stores objects as files below a root directory.
type LocalBackend struct {
	root string
}

func NewLocalBackend(directory string) (*LocalBackend, error) {
	if directory == "" {
		directory = DefaultDirectory
	}
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create %s: %w", directory, err)
	}
	return &LocalBackend{root: directory}, nil
}

func (b *LocalBackend) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid media key %q", key)
	}
	return filepath.Join(b.root, clean), nil
}

func (b *LocalBackend) Put(ctx context.Context, key string, data []byte) error {
	p, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("cannot create directory for %s: %w", key, err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("cannot write %s: %w", key, err)
	}
	return nil
}

func (b *LocalBackend) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	p, err := b.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", key, err)
	}
	return f, nil
}

func (b *LocalBackend) Delete(ctx context.Context, key string) error {
	p, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("cannot delete %s: %w", key, err)
	}
	return nil
}

// NoopBackend accepts writes and serves empty content. Used in tests and demos.
type NoopBackend struct{}

func NewNoopBackend() *NoopBackend {
	return &NoopBackend{}
}

func (NoopBackend) Put(ctx context.Context, key string, data []byte) error {
	return nil
}

func (NoopBackend) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(nil)), nil
}

func (NoopBackend) Delete(ctx context.Context, key string) error {
	return nil
}
