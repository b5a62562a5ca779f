package main

import (
	"fmt"
	"path/filepath"

	"github.com/framereview/annotations/internal/cache"
	"github.com/framereview/annotations/internal/config"
	"github.com/framereview/annotations/internal/logging"
	"github.com/framereview/annotations/internal/storage"
	"github.com/framereview/annotations/internal/storage/memory"
	pgstorage "github.com/framereview/annotations/internal/storage/postgres"
	sqlitestorage "github.com/framereview/annotations/internal/storage/sqlite"
	"github.com/spf13/viper"
)

func initStorage(storageCfg config.StorageConfig, logManager *logging.SlogManager) (storage.Backend, error) {
	logger := logManager.Logger()

	backend, err := createStorageBackend(storageCfg, logManager)
	if err != nil {
		logger.Error("Failed to create storage backend", "error", err)
		return nil, err
	}
	if err := backend.Init(); err != nil {
		logger.Error("Failed to initialize storage backend", "type", storageCfg.Type, "error", err)
		return nil, err
	}
	return backend, nil
}

func createStorageBackend(storageCfg config.StorageConfig, logManager *logging.SlogManager) (storage.Backend, error) {
	logger := logManager.Logger()

	switch storageCfg.Type {
	case "postgres":
		logger.Info("Postgres storage backend initialized")
		return pgstorage.New(pgstorage.Dependencies{
			Cache:      cache.NewBookmarkCache(),
			LogManager: logManager,
		}), nil

	case "sqlite":
		dumpPath := storageCfg.SQLite.DumpPath
		if dumpPath == "" {
			dumpPath = filepath.Join(viper.GetString("logsDir"), fmt.Sprintf("%s_bookmarks.db", ServiceName))
		}
		backend, err := sqlitestorage.New(sqlitestorage.Config{
			DumpInterval: storageCfg.SQLite.DumpInterval,
			DumpPath:     dumpPath,
		}, cache.NewBookmarkCache(), logManager)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		logger.Info("SQLite storage backend initialized", "dump", dumpPath)
		return backend, nil

	case "memory", "":
		logger.Info("Memory storage backend initialized")
		return memory.New(storageCfg.Memory), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", storageCfg.Type)
	}
}
