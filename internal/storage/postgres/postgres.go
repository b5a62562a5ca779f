// Package postgres implements the storage.Backend interface on PostgreSQL by
// wrapping the GORM backend with its connection handling.
package postgres

import (
	"fmt"

	"github.com/framereview/annotations/internal/cache"
	"github.com/framereview/annotations/internal/database"
	"github.com/framereview/annotations/internal/logging"
	gormstorage "github.com/framereview/annotations/internal/storage/gorm"

	"gorm.io/gorm"
)

// Dependencies holds all dependencies for the PostgreSQL storage backend.
type Dependencies struct {
	DB         *gorm.DB
	Cache      *cache.BookmarkCache
	LogManager *logging.SlogManager
}

// Backend implements storage.Backend on PostgreSQL.
type Backend struct {
	*gormstorage.Backend
	deps Dependencies
}

// New creates a new PostgreSQL storage backend. The connection is opened in
// Init unless one was injected.
func New(deps Dependencies) *Backend {
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	return &Backend{deps: deps}
}

// Init connects if no DB was injected via Dependencies, then initializes the
// embedded GORM backend.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		db, err := database.GetPostgresDB()
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		b.deps.DB = db
		b.deps.LogManager.WriteLog("postgres:Init", "Connected to database", "INFO")
	}

	b.Backend = gormstorage.New(gormstorage.Dependencies{
		DB:         b.deps.DB,
		Cache:      b.deps.Cache,
		LogManager: b.deps.LogManager,
	})
	return b.Backend.Init()
}

// Close flushes the GORM backend and closes the connection pool.
func (b *Backend) Close() error {
	if b.Backend == nil {
		return nil
	}
	if err := b.Backend.Close(); err != nil {
		return err
	}
	sqlDB, err := b.deps.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
