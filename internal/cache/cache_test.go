package cache

import (
	"sync"
	"testing"

	"github.com/framereview/annotations/internal/annotation"
	"github.com/framereview/annotations/internal/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bookmark(frame string) storage.Bookmark {
	return storage.Bookmark{ID: uuid.New(), FrameKey: frame, Name: frame}
}

func TestBookmarkCache_New(t *testing.T) {
	cache := NewBookmarkCache()

	require.NotNil(t, cache)
	assert.Equal(t, 0, cache.Len())
	assert.Empty(t, cache.All())
}

func TestBookmarkCache_PutAndGet(t *testing.T) {
	cache := NewBookmarkCache()
	b := bookmark("clip#10")

	cache.Put(b)

	got, ok := cache.Get(b.ID)
	require.True(t, ok, "expected to find bookmark")
	assert.Equal(t, "clip#10", got.FrameKey)

	_, ok = cache.Get(uuid.New())
	assert.False(t, ok)
}

func TestBookmarkCache_OnFrameKeepsCreationOrder(t *testing.T) {
	cache := NewBookmarkCache()
	a, b, c := bookmark("f1"), bookmark("f2"), bookmark("f1")
	cache.Put(a)
	cache.Put(b)
	cache.Put(c)

	onF1 := cache.OnFrame("f1")
	require.Len(t, onF1, 2)
	assert.Equal(t, a.ID, onF1[0].ID)
	assert.Equal(t, c.ID, onF1[1].ID)

	// replacing keeps the slot
	a.Note = "updated"
	cache.Put(a)
	onF1 = cache.OnFrame("f1")
	assert.Equal(t, "updated", onF1[0].Note)
	assert.Len(t, cache.All(), 3)
}

func TestBookmarkCache_PutMovesFrame(t *testing.T) {
	cache := NewBookmarkCache()
	b := bookmark("f1")
	cache.Put(b)
	b.FrameKey = "f2"
	cache.Put(b)

	assert.Empty(t, cache.OnFrame("f1"))
	assert.Len(t, cache.OnFrame("f2"), 1)
}

func TestBookmarkCache_Delete(t *testing.T) {
	cache := NewBookmarkCache()
	a, b := bookmark("f1"), bookmark("f1")
	cache.Put(a)
	cache.Put(b)

	assert.True(t, cache.Delete(a.ID))
	assert.False(t, cache.Delete(a.ID), "second delete reports missing")

	_, ok := cache.Get(a.ID)
	assert.False(t, ok)
	onF1 := cache.OnFrame("f1")
	require.Len(t, onF1, 1)
	assert.Equal(t, b.ID, onF1[0].ID)
}

func TestBookmarkCache_SetAnnotation(t *testing.T) {
	cache := NewBookmarkCache()
	b := bookmark("f1")
	cache.Put(b)

	anno := annotation.New()
	assert.True(t, cache.SetAnnotation(b.ID, anno))
	got, _ := cache.Get(b.ID)
	assert.Same(t, anno, got.Annotation)

	assert.False(t, cache.SetAnnotation(uuid.New(), anno))
}

func TestBookmarkCache_Reset(t *testing.T) {
	cache := NewBookmarkCache()
	cache.Put(bookmark("f1"))
	cache.Reset()
	assert.Equal(t, 0, cache.Len())
	assert.Empty(t, cache.OnFrame("f1"))
}

func TestBookmarkCache_ConcurrentAccess(t *testing.T) {
	cache := NewBookmarkCache()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b := bookmark("f")
				cache.Put(b)
				cache.Get(b.ID)
				cache.OnFrame("f")
			}
		}()
	}

	wg.Wait()
	assert.Equal(t, 1000, cache.Len())
}
