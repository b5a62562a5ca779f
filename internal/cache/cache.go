package cache

import (
	"sync"

	"github.com/framereview/annotations/internal/annotation"
	"github.com/framereview/annotations/internal/storage"
	"github.com/google/uuid"
)

// BookmarkCache holds bookmarks in memory, indexed by id and by frame, so the
// event loop and the render path never wait on the database.
type BookmarkCache struct {
	mu        sync.RWMutex
	bookmarks map[uuid.UUID]storage.Bookmark
	frames    map[string][]uuid.UUID
	order     []uuid.UUID
}

func NewBookmarkCache() *BookmarkCache {
	return &BookmarkCache{
		bookmarks: make(map[uuid.UUID]storage.Bookmark),
		frames:    make(map[string][]uuid.UUID),
	}
}

// Reset clears all bookmarks from the cache
func (c *BookmarkCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bookmarks = make(map[uuid.UUID]storage.Bookmark)
	c.frames = make(map[string][]uuid.UUID)
	c.order = nil
}

// Put inserts b, or replaces the bookmark with the same id. A replaced
// bookmark keeps its position in frame and creation order.
func (c *BookmarkCache) Put(b storage.Bookmark) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.bookmarks[b.ID]; ok {
		if old.FrameKey != b.FrameKey {
			c.frames[old.FrameKey] = without(c.frames[old.FrameKey], b.ID)
			c.frames[b.FrameKey] = append(c.frames[b.FrameKey], b.ID)
		}
		c.bookmarks[b.ID] = b
		return
	}
	c.bookmarks[b.ID] = b
	c.frames[b.FrameKey] = append(c.frames[b.FrameKey], b.ID)
	c.order = append(c.order, b.ID)
}

// Get retrieves a bookmark by id
func (c *BookmarkCache) Get(id uuid.UUID) (storage.Bookmark, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.bookmarks[id]
	return b, ok
}

// Delete removes a bookmark and reports whether it existed.
func (c *BookmarkCache) Delete(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.bookmarks[id]
	if !ok {
		return false
	}
	delete(c.bookmarks, id)
	c.frames[b.FrameKey] = without(c.frames[b.FrameKey], id)
	if len(c.frames[b.FrameKey]) == 0 {
		delete(c.frames, b.FrameKey)
	}
	c.order = without(c.order, id)
	return true
}

// SetAnnotation swaps the annotation of bookmark id.
func (c *BookmarkCache) SetAnnotation(id uuid.UUID, a *annotation.Annotation) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.bookmarks[id]
	if !ok {
		return false
	}
	b.Annotation = a
	c.bookmarks[id] = b
	return true
}

// OnFrame returns the bookmarks on frameKey in creation order.
func (c *BookmarkCache) OnFrame(frameKey string) []storage.Bookmark {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := c.frames[frameKey]
	out := make([]storage.Bookmark, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.bookmarks[id])
	}
	return out
}

// All returns every bookmark in creation order.
func (c *BookmarkCache) All() []storage.Bookmark {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]storage.Bookmark, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.bookmarks[id])
	}
	return out
}

// Len returns the number of cached bookmarks.
func (c *BookmarkCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.bookmarks)
}

func without(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}
