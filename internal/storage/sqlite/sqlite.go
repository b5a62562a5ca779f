// Package sqlitestorage implements the storage.Backend interface using an in-memory
// SQLite database with periodic disk dumps via VACUUM INTO.
// It wraps the GORM backend; the SQLite-specific parts are creating the
// in-memory DB, seeding it from the last dump and the dump loop itself.
package sqlitestorage

import (
	"fmt"
	"os"
	"time"

	"github.com/framereview/annotations/internal/cache"
	"github.com/framereview/annotations/internal/database"
	"github.com/framereview/annotations/internal/logging"
	"github.com/framereview/annotations/internal/model"
	gormstorage "github.com/framereview/annotations/internal/storage/gorm"

	"gorm.io/gorm"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	DumpInterval time.Duration
	DumpPath     string // Path for periodic VACUUM INTO dumps
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	db       *gorm.DB
	cfg      Config
	log      *logging.SlogManager
	stopChan chan struct{}
	done     chan struct{}
}

// New creates a new SQLite storage backend.
func New(cfg Config, bookmarkCache *cache.BookmarkCache, logManager *logging.SlogManager) (*Backend, error) {
	db, err := database.GetSqliteDB("")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}

	gormBackend := gormstorage.New(gormstorage.Dependencies{
		DB:         db,
		Cache:      bookmarkCache,
		LogManager: logManager,
	})

	return &Backend{
		Backend:  gormBackend,
		db:       db,
		cfg:      cfg,
		log:      logManager,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Init seeds the in-memory DB from an existing dump, initializes the embedded
// GORM backend and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.restore(); err != nil {
		return err
	}
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0 {
		go b.dumpLoop()
	} else {
		close(b.done)
	}
	return nil
}

// restore copies the bookmarks of the previous dump into the memory DB.
func (b *Backend) restore() error {
	if b.cfg.DumpPath == "" {
		return nil
	}
	if _, err := os.Stat(b.cfg.DumpPath); err != nil {
		return nil
	}

	disk, err := database.GetSqliteDB(b.cfg.DumpPath)
	if err != nil {
		return fmt.Errorf("failed to open dump %s: %w", b.cfg.DumpPath, err)
	}
	if sqlDB, err := disk.DB(); err == nil {
		defer sqlDB.Close()
	}

	if !disk.Migrator().HasTable(&model.Bookmark{}) {
		return nil
	}
	var rows []model.Bookmark
	if err := disk.Find(&rows).Error; err != nil {
		return fmt.Errorf("failed to read dump: %w", err)
	}
	if err := b.db.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	if len(rows) > 0 {
		if err := b.db.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to restore dump: %w", err)
		}
	}
	b.log.WriteLog("sqlite:restore", fmt.Sprintf("Restored %d bookmarks from %s", len(rows), b.cfg.DumpPath), "INFO")
	return nil
}

// Close stops the dump goroutine, closes the embedded GORM backend and writes
// a final dump.
func (b *Backend) Close() error {
	close(b.stopChan)
	<-b.done
	if err := b.Backend.Close(); err != nil {
		return err
	}
	if b.cfg.DumpPath != "" {
		return b.Dump()
	}
	return nil
}

// Dump flushes pending writes and vacuums the memory DB to DumpPath.
func (b *Backend) Dump() error {
	if err := b.Flush(); err != nil {
		return err
	}
	return database.DumpMemoryDBToDisk(b.db, b.cfg.DumpPath)
}

// dumpLoop periodically dumps the in-memory SQLite database to disk via VACUUM INTO.
// VACUUM INTO creates a point-in-time snapshot, so no pause mechanism is needed.
func (b *Backend) dumpLoop() {
	defer close(b.done)
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			start := time.Now()
			if err := b.Dump(); err != nil {
				b.log.WriteLog("sqlite:dumpLoop", fmt.Sprintf("Error dumping to disk: %v", err), "ERROR")
			} else {
				b.log.WriteLog("sqlite:dumpLoop", fmt.Sprintf("Dumped to disk in %s", time.Since(start)), "DEBUG")
			}
		}
	}
}
