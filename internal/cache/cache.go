package cache

import (
	"context"
	"errors"
	"time"
)

var ErrCacheMiss = errors.New("cache miss")

// Entry is a stored HTTP response.
type Entry struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// PageCache stores rendered pages under a key for a fixed time.
type PageCache interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, entry *Entry, ttl time.Duration) error
	// Clear drops every entry this cache owns.
	Clear(ctx context.Context) error
	Close() error
}

// BuildKey namespaces a request URI under prefix.
func BuildKey(prefix, uri string) string {
	return prefix + ":" + uri
}
