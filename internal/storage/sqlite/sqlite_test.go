package sqlitestorage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/framereview/annotations/internal/annotation"
	"github.com/framereview/annotations/internal/cache"
	"github.com/framereview/annotations/internal/logging"
	"github.com/framereview/annotations/internal/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface check
var _ storage.Backend = (*Backend)(nil)

func newBackend(t *testing.T, cfg Config) *Backend {
	t.Helper()
	b, err := New(cfg, cache.NewBookmarkCache(), logging.NewSlogManager())
	require.NoError(t, err)
	require.NoError(t, b.Init())
	return b
}

func TestInitClose_NoDump(t *testing.T) {
	b := newBackend(t, Config{})
	require.NoError(t, b.Close())
}

func TestCloseDumpsAndRestores(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookmarks.db")
	cfg := Config{DumpPath: path, DumpInterval: time.Hour}

	b := newBackend(t, cfg)
	id := uuid.New()
	require.NoError(t, b.CreateBookmark(storage.Bookmark{ID: id, FrameKey: "shot#3", Note: "n", Annotation: annotation.New()}))
	require.NoError(t, b.Close())

	_, err := os.Stat(path)
	require.NoError(t, err, "close writes a dump")

	restored := newBackend(t, cfg)
	defer restored.Close()

	got, err := restored.Bookmark(id)
	require.NoError(t, err)
	assert.Equal(t, "shot#3", got.FrameKey)
	assert.Equal(t, "n", got.Note)
	assert.NotNil(t, got.Annotation)
}

func TestDumpLoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookmarks.db")
	b := newBackend(t, Config{DumpPath: path, DumpInterval: 20 * time.Millisecond})
	defer b.Close()

	require.NoError(t, b.CreateBookmark(storage.Bookmark{ID: uuid.New(), FrameKey: "f"}))

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
}
