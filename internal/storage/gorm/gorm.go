// Package gormstorage implements the storage.Backend interface on top of GORM.
// Reads are served from the bookmark cache; writes are queued and drained into
// the database by a background writer goroutine.
package gormstorage

import (
	"fmt"
	"sync"
	"time"

	"github.com/framereview/annotations/internal/annotation"
	"github.com/framereview/annotations/internal/cache"
	"github.com/framereview/annotations/internal/logging"
	"github.com/framereview/annotations/internal/model"
	"github.com/framereview/annotations/internal/model/convert"
	"github.com/framereview/annotations/internal/queue"
	"github.com/framereview/annotations/internal/storage"
	"github.com/google/uuid"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultFlushInterval = 2 * time.Second

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB            *gorm.DB
	Cache         *cache.BookmarkCache
	LogManager    *logging.SlogManager
	FlushInterval time.Duration
}

type opKind int

const (
	opUpsert opKind = iota
	opDelete
)

// op is one pending write. Rows are converted when queued so later in-memory
// edits never leak into an earlier write.
type op struct {
	kind opKind
	row  model.Bookmark
}

// Backend implements storage.Backend using GORM with queue-based writes.
type Backend struct {
	deps     Dependencies
	ops      *queue.Queue[op]
	flushMu  sync.Mutex
	stopChan chan struct{}
	done     chan struct{}
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.Cache == nil {
		deps.Cache = cache.NewBookmarkCache()
	}
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = defaultFlushInterval
	}
	return &Backend{
		deps: deps,
		ops:  queue.NewCoalescing(func(o op) string { return o.row.ID }),
	}
}

// DB returns the underlying connection, nil in queue-only mode.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init migrates the schema, loads stored bookmarks into the cache and starts
// the DB writer goroutine. Without a DB the backend runs queue-only.
func (b *Backend) Init() error {
	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})

	if b.deps.DB != nil {
		if err := b.setupDB(); err != nil {
			return fmt.Errorf("failed to setup DB: %w", err)
		}
		if err := b.load(); err != nil {
			return fmt.Errorf("failed to load bookmarks: %w", err)
		}
	}

	go b.writer()
	return nil
}

func (b *Backend) setupDB() error {
	log := b.deps.LogManager
	log.WriteLog("setupDB", "Migrating schema", "INFO")
	if err := b.deps.DB.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	log.WriteLog("setupDB", "Database setup complete", "INFO")
	return nil
}

// load fills the cache from the bookmarks table. Rows that fail to decode
// are logged and skipped.
func (b *Backend) load() error {
	var rows []model.Bookmark
	if err := b.deps.DB.Order("created_at, id").Find(&rows).Error; err != nil {
		return err
	}
	b.deps.Cache.Reset()
	for _, row := range rows {
		bm, err := convert.RowToBookmark(row)
		if err != nil {
			b.deps.LogManager.Logger().Error("Skipping unreadable bookmark", "id", row.ID, "error", err)
			continue
		}
		b.deps.Cache.Put(bm)
	}
	b.deps.LogManager.Logger().Info("Loaded bookmarks", "count", b.deps.Cache.Len())
	return nil
}

// Close stops the writer goroutine and flushes whatever is still queued.
func (b *Backend) Close() error {
	if b.stopChan == nil {
		return nil
	}
	close(b.stopChan)
	<-b.done
	b.stopChan = nil
	return b.Flush()
}

// CreateBookmark adds b to the cache and queues its insert.
func (b *Backend) CreateBookmark(bm storage.Bookmark) error {
	if _, ok := b.deps.Cache.Get(bm.ID); ok {
		return fmt.Errorf("bookmark %s already exists", bm.ID)
	}
	row, err := convert.BookmarkToRow(bm)
	if err != nil {
		return err
	}
	b.deps.Cache.Put(bm)
	b.ops.Push(op{kind: opUpsert, row: row})
	return nil
}

// RemoveBookmark drops id from the cache and queues its delete.
func (b *Backend) RemoveBookmark(id uuid.UUID) error {
	if !b.deps.Cache.Delete(id) {
		return fmt.Errorf("%w: %s", storage.ErrBookmarkNotFound, id)
	}
	b.ops.Push(op{kind: opDelete, row: model.Bookmark{ID: id.String()}})
	return nil
}

func (b *Backend) Bookmark(id uuid.UUID) (storage.Bookmark, error) {
	bm, ok := b.deps.Cache.Get(id)
	if !ok {
		return storage.Bookmark{}, fmt.Errorf("%w: %s", storage.ErrBookmarkNotFound, id)
	}
	return bm, nil
}

func (b *Backend) BookmarksOnFrame(frameKey string) ([]storage.Bookmark, error) {
	return b.deps.Cache.OnFrame(frameKey), nil
}

func (b *Backend) Bookmarks() ([]storage.Bookmark, error) {
	return b.deps.Cache.All(), nil
}

// UpdateAnnotation swaps the cached annotation and queues the row update.
func (b *Backend) UpdateAnnotation(id uuid.UUID, a *annotation.Annotation) error {
	bm, ok := b.deps.Cache.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", storage.ErrBookmarkNotFound, id)
	}
	bm.Annotation = a
	row, err := convert.BookmarkToRow(bm)
	if err != nil {
		return err
	}
	b.deps.Cache.SetAnnotation(id, a)
	b.ops.Push(op{kind: opUpsert, row: row})
	return nil
}

// Pending returns the number of queued writes.
func (b *Backend) Pending() int {
	return b.ops.Len()
}

// Flush writes all queued operations in one transaction. On failure the
// batch is put back in front of anything queued meanwhile, minus rows that
// were written again in the meantime.
func (b *Backend) Flush() error {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	if b.deps.DB == nil || b.ops.Empty() {
		return nil
	}

	items := b.ops.GetAndEmpty()
	err := b.deps.DB.Transaction(func(tx *gorm.DB) error {
		for _, o := range items {
			if err := apply(tx, o); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		b.deps.LogManager.WriteLog(":DB:WRITER:", fmt.Sprintf("Error writing %d bookmark changes: %v", len(items), err), "ERROR")
		b.ops.PushFront(items...)
		return err
	}
	return nil
}

func apply(tx *gorm.DB, o op) error {
	switch o.kind {
	case opDelete:
		return tx.Delete(&model.Bookmark{}, "id = ?", o.row.ID).Error
	default:
		row := o.row
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"frame_key", "name", "note", "user_type", "annotation", "updated_at"}),
		}).Create(&row).Error
	}
}

// writer periodically drains the queue into the DB.
func (b *Backend) writer() {
	defer close(b.done)
	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			_ = b.Flush()
		}
	}
}
