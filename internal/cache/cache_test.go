package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPageCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryPageCache("index_page", 0)
	defer c.Close()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	key := BuildKey("index_page", "/?page=2")
	assert.Equal(t, "index_page:/?page=2", key)

	require.NoError(t, c.Set(ctx, key, &Entry{Status: 200, ContentType: "text/html", Body: []byte("<p>hi</p>")}, 15*time.Minute))

	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>", string(got.Body))

	now = now.Add(15*time.Minute - time.Second)
	_, err = c.Get(ctx, key)
	assert.NoError(t, err)

	now = now.Add(time.Second)
	_, err = c.Get(ctx, key)
	assert.ErrorIs(t, err, ErrCacheMiss)

	c.deleteExpired()
	assert.Zero(t, c.Len())
}

func TestMemoryPageCacheClearOnlyOwnPrefix(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryPageCache("index_page", time.Minute)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "index_page:/", &Entry{Status: 200}, time.Minute))
	require.NoError(t, c.Set(ctx, "other:/", &Entry{Status: 200}, time.Minute))

	require.NoError(t, c.Clear(ctx))

	_, err := c.Get(ctx, "index_page:/")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Get(ctx, "other:/")
	assert.NoError(t, err)

	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close(), "close is idempotent")
}

func TestMemoryPageCacheCopiesBody(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryPageCache("p", 0)
	defer c.Close()

	body := []byte("abc")
	require.NoError(t, c.Set(ctx, "p:/", &Entry{Body: body}, time.Minute))
	body[0] = 'x'

	got, err := c.Get(ctx, "p:/")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got.Body))
}

// Runs against a real server when REDIS_ADDR is set.
func TestRedisPageCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	prefix := "test_index_page_" + time.Now().Format("150405.000000")

	c, err := NewRedisPageCache(RedisConfig{Address: addr}, prefix)
	require.NoError(t, err)
	defer c.Close()

	key := BuildKey(prefix, "/")
	require.NoError(t, c.Set(ctx, key, &Entry{Status: 200, ContentType: "text/html", Body: []byte("cached")}, time.Minute))

	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "cached", string(got.Body))
	assert.Equal(t, 200, got.Status)

	require.NoError(t, c.Clear(ctx))
	_, err = c.Get(ctx, key)
	assert.ErrorIs(t, err, ErrCacheMiss)
}
