package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	content := "%PDF-1.7 quote body"
	path, size, err := store.Put(ctx, "HGB-Q-2026-001", "application/pdf", strings.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, int64(len(content)), size)
	// Documents are grouped under the owning quote's number.
	assert.True(t, strings.HasPrefix(path, "quotes/HGB-Q-2026-001/"))
	assert.True(t, strings.HasSuffix(path, ".pdf"))

	reader, err := store.Open(ctx, path)
	require.NoError(t, err)
	defer reader.Close()
	got, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, content, string(got))

	require.NoError(t, store.Remove(ctx, path))
	_, err = store.Open(ctx, path)
	assert.Error(t, err)

	// Removing twice is fine.
	assert.NoError(t, store.Remove(ctx, path))
}

func TestFileStoreRejectsUnknownContentTypes(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	_, _, err = store.Put(ctx, "HGB-Q-2026-001", "application/x-msdownload", strings.NewReader("MZ"))
	assert.ErrorIs(t, err, ErrUnsupportedContentType)
}
