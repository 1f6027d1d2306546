package storage

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"rssaggregator/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFileSnapshotStore_WritesAndReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "public", "feed.xml")
	store := NewFileSnapshotStore(path, discardLogger())

	require.NoError(t, store.SaveSnapshot(context.Background(), &domain.Document{Body: []byte("<rss>first</rss>"), Valid: true}))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<rss>first</rss>", string(got))

	require.NoError(t, store.SaveSnapshot(context.Background(), &domain.Document{Body: []byte("<rss>second</rss>"), Valid: true}))
	got, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<rss>second</rss>", string(got))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileSnapshotStore_CancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.xml")
	store := NewFileSnapshotStore(path, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := store.SaveSnapshot(ctx, &domain.Document{Body: []byte("<rss/>")})
	assert.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSnapshotStores_ImplementInterface(t *testing.T) {
	var _ SnapshotStore = (*FileSnapshotStore)(nil)
	var _ SnapshotStore = (*PostgresSnapshotStore)(nil)
}
