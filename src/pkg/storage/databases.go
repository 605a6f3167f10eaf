// Package storage provides functionality for persisting and retrieving Mindnoscape data.
// This file handles the general SQL database interfaces and schemas.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mindnoscape/web-app/src/pkg/log"
)

// DBDriver represents the type of database driver
type DBDriver string

const (
	SQLite DBDriver = "sqlite"
	Badger DBDriver = "badger"
)

// Storage errors shared by every driver.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// Database interface defines common SQL database operations
type Database interface {
	Open(dataSourceName string) error
	Close() error
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
	Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row
	InitSchema() error
}

// NewDatabase creates a new SQL Database instance based on the specified driver
func NewDatabase(driver DBDriver, logger *log.Logger) (Database, error) {
	switch driver {
	case SQLite:
		return &SQLiteDatabase{BaseDatabase: BaseDatabase{logger: logger}}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// BaseDatabase provides a base implementation of some Database methods
type BaseDatabase struct {
	db     *sql.DB
	logger *log.Logger
}

// WithTx runs fn inside a transaction, committing on success and rolling back otherwise.
func (b *BaseDatabase) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		b.logger.Error(ctx, "Failed to begin transaction", log.Fields{"error": err})
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			b.logger.Error(ctx, "Failed to rollback transaction", log.Fields{"error": rbErr})
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		b.logger.Error(ctx, "Failed to commit transaction", log.Fields{"error": err})
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	b.logger.Debug(ctx, "Transaction committed", nil)
	return nil
}

// Exec executes a query without returning any rows
func (b *BaseDatabase) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	b.logger.Debug(ctx, "Executing query", log.Fields{"query": query})
	return b.db.ExecContext(ctx, query, args...)
}

// Query executes a query that returns rows
func (b *BaseDatabase) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	b.logger.Debug(ctx, "Querying", log.Fields{"query": query})
	return b.db.QueryContext(ctx, query, args...)
}

// QueryRow executes a query that is expected to return at most one row
func (b *BaseDatabase) QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return b.db.QueryRowContext(ctx, query, args...)
}

// InitSchema initializes the database schema. Node and connection lists are
// stored as JSON documents on the mind map row.
func (b *BaseDatabase) InitSchema() error {
	ctx := context.Background()
	b.logger.Info(ctx, "Initializing database schema", nil)

	_, err := b.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			password_hash BLOB NOT NULL,
			active BOOLEAN NOT NULL DEFAULT 1,
			created DATETIME NOT NULL,
			updated DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS mindmaps (
			id TEXT PRIMARY KEY,
			owner TEXT NOT NULL,
			title TEXT NOT NULL,
			nodes TEXT NOT NULL,
			connections TEXT NOT NULL,
			translate_x REAL NOT NULL DEFAULT 0,
			translate_y REAL NOT NULL DEFAULT 0,
			created DATETIME NOT NULL,
			updated DATETIME NOT NULL,
			FOREIGN KEY (owner) REFERENCES users(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_mindmaps_owner_updated ON mindmaps(owner, updated);
	`)
	if err != nil {
		b.logger.Error(ctx, "Failed to create tables", log.Fields{"error": err})
		return fmt.Errorf("failed to create tables: %w", err)
	}
	b.logger.Info(ctx, "Database schema initialized successfully", nil)
	return nil
}

// validateDBDriver checks if the provided driver is supported
func validateDBDriver(driver string) (DBDriver, error) {
	switch DBDriver(driver) {
	case SQLite, "":
		return SQLite, nil
	case Badger:
		return Badger, nil
	default:
		return "", fmt.Errorf("unsupported database driver: %s", driver)
	}
}
