package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(LocalConfig{BasePath: t.TempDir()})
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, "posts/a.png", strings.NewReader("png-bytes"), 9, "image/png"))

	ok, err := s.Exists(ctx, "posts/a.png")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := s.Read(ctx, "posts/a.png")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(body))

	entries, err := os.ReadDir(filepath.Join(s.BasePath(), "posts"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")

	require.NoError(t, s.Delete(ctx, "posts/a.png"))
	require.NoError(t, s.Delete(ctx, "posts/a.png"), "deleting twice is fine")

	_, err = s.Read(ctx, "posts/a.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	s, err := NewLocalStorage(LocalConfig{BasePath: t.TempDir()})
	require.NoError(t, err)

	err = s.Write(context.Background(), "../escape.txt", strings.NewReader("x"), 1, "")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestURLBuilder(t *testing.T) {
	assert.Equal(t, "/media/posts/a.png", URLBuilder{Base: "/media/"}.URL("posts/a.png"))
	assert.Equal(t, "https://cdn.example.com/posts/a.png", URLBuilder{Base: "https://cdn.example.com"}.URL("posts/a.png"))
	assert.Empty(t, URLBuilder{Base: "/media"}.URL(""))
}
