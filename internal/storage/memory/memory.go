// internal/storage/memory/memory.go
package memory

import (
	"fmt"

	"github.com/framereview/annotations/internal/annotation"
	"github.com/framereview/annotations/internal/cache"
	"github.com/framereview/annotations/internal/config"
	"github.com/framereview/annotations/internal/storage"
	"github.com/google/uuid"
)

// Backend keeps bookmarks in memory and exports them to JSON on Close
type Backend struct {
	cfg   config.MemoryConfig
	cache *cache.BookmarkCache

	lastExportPath string
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:   cfg,
		cache: cache.NewBookmarkCache(),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close writes the export when an output directory is configured
func (b *Backend) Close() error {
	if b.cfg.OutputDir == "" {
		return nil
	}
	return b.exportJSON()
}

// CreateBookmark registers a new bookmark
func (b *Backend) CreateBookmark(bm storage.Bookmark) error {
	if _, ok := b.cache.Get(bm.ID); ok {
		return fmt.Errorf("bookmark %s already exists", bm.ID)
	}
	b.cache.Put(bm)
	return nil
}

// RemoveBookmark deletes a bookmark
func (b *Backend) RemoveBookmark(id uuid.UUID) error {
	if !b.cache.Delete(id) {
		return fmt.Errorf("%w: %s", storage.ErrBookmarkNotFound, id)
	}
	return nil
}

// Bookmark returns a bookmark by id
func (b *Backend) Bookmark(id uuid.UUID) (storage.Bookmark, error) {
	bm, ok := b.cache.Get(id)
	if !ok {
		return storage.Bookmark{}, fmt.Errorf("%w: %s", storage.ErrBookmarkNotFound, id)
	}
	return bm, nil
}

// BookmarksOnFrame returns the bookmarks placed on frameKey
func (b *Backend) BookmarksOnFrame(frameKey string) ([]storage.Bookmark, error) {
	return b.cache.OnFrame(frameKey), nil
}

// Bookmarks returns all bookmarks in creation order
func (b *Backend) Bookmarks() ([]storage.Bookmark, error) {
	return b.cache.All(), nil
}

// UpdateAnnotation replaces the annotation of a bookmark
func (b *Backend) UpdateAnnotation(id uuid.UUID, a *annotation.Annotation) error {
	if !b.cache.SetAnnotation(id, a) {
		return fmt.Errorf("%w: %s", storage.ErrBookmarkNotFound, id)
	}
	return nil
}
