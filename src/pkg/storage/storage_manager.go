package storage

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"mindnoscape/web-app/src/pkg/log"
	"mindnoscape/web-app/src/pkg/model"
)

// Storage represents the main storage implementation.
type Storage struct {
	closer io.Closer
	Driver DBDriver
	UserStore
	MindmapStore
}

// NewStorage opens the configured driver and builds its stores.
func NewStorage(config *model.Config, logger *log.Logger) (*Storage, error) {
	if config == nil {
		return nil, fmt.Errorf("config not initialized")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger not initialized")
	}

	dbDriver, err := validateDBDriver(config.DatabaseType)
	if err != nil {
		return nil, fmt.Errorf("invalid database driver '%s': %w", config.DatabaseType, err)
	}

	switch dbDriver {
	case Badger:
		path := filepath.Join(config.DatabaseDir, strings.TrimSuffix(config.DatabaseFile, filepath.Ext(config.DatabaseFile))+".badger")
		bdb, err := OpenBadger(BadgerConfig{
			Path:       path,
			SyncWrites: true,
			GCInterval: time.Duration(config.BadgerGCInterval) * time.Minute,
		}, logger)
		if err != nil {
			return nil, err
		}
		return NewBadgerStorage(bdb), nil
	default:
		db, err := NewDatabase(dbDriver, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create database instance: %w", err)
		}

		dataSourceName := filepath.Join(config.DatabaseDir, config.DatabaseFile)
		if err := db.Open(dataSourceName); err != nil {
			return nil, fmt.Errorf("failed to open database connection '%s': %w", dataSourceName, err)
		}
		if err := db.InitSchema(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
		return NewSQLStorage(db, logger), nil
	}
}

// NewSQLStorage builds a Storage on an open, initialized SQL database.
func NewSQLStorage(db Database, logger *log.Logger) *Storage {
	return &Storage{
		closer:       db,
		Driver:       SQLite,
		UserStore:    NewUserStorage(db, logger),
		MindmapStore: NewMindmapStorage(db, logger),
	}
}

// NewBadgerStorage builds a Storage on an open badger database.
func NewBadgerStorage(db *BadgerDatabase) *Storage {
	return &Storage{
		closer:       db,
		Driver:       Badger,
		UserStore:    NewBadgerUserStorage(db),
		MindmapStore: NewBadgerMindmapStorage(db),
	}
}

// Close closes the database connection.
func (s *Storage) Close() error {
	if err := s.closer.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	return nil
}
