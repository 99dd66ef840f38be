package storage

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNotFound is returned when a key does not exist.
	ErrNotFound = errors.New("object not found")
	// ErrInvalidKey is returned for empty keys or keys escaping the store.
	ErrInvalidKey = errors.New("invalid storage key")
)

// Storage is the medium uploaded post images live on.
type Storage interface {
	// Write stores content under key. size is -1 when unknown.
	Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Read returns the content for key; the caller closes it.
	Read(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Exists(ctx context.Context, key string) (bool, error)
}

// URLBuilder maps a storage key to a URL a browser can load.
type URLBuilder struct {
	Base string
}

// URL returns Base/key, or "" for an empty key.
func (b URLBuilder) URL(key string) string {
	if key == "" {
		return ""
	}
	base := b.Base
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	return base + "/" + key
}
