package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"mindnoscape/web-app/src/pkg/log"
)

// BadgerConfig configures the embedded key-value document store.
type BadgerConfig struct {
	Path       string
	InMemory   bool
	SyncWrites bool
	GCInterval time.Duration
	GCRatio    float64
}

// badgerLogger routes badger's internal messages into the application logger.
type badgerLogger struct {
	logger *log.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(context.Background(), fmt.Sprintf(format, args...), log.Fields{"component": "badger"})
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(context.Background(), fmt.Sprintf(format, args...), log.Fields{"component": "badger"})
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(context.Background(), fmt.Sprintf(format, args...), log.Fields{"component": "badger"})
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(context.Background(), fmt.Sprintf(format, args...), log.Fields{"component": "badger"})
}

// BadgerDatabase wraps an open badger.DB together with its value log GC loop.
type BadgerDatabase struct {
	db     *badger.DB
	logger *log.Logger
	stopCh chan struct{}
	doneCh chan struct{}
}

// OpenBadger opens (or creates) a badger store.
func OpenBadger(cfg BadgerConfig, logger *log.Logger) (*BadgerDatabase, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(&badgerLogger{logger: logger})

	db, err := badger.Open(opts)
	if err != nil {
		logger.Error(context.Background(), "Failed to open badger database", log.Fields{"error": err})
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	b := &BadgerDatabase{db: db, logger: logger}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		ratio := cfg.GCRatio
		if ratio <= 0 || ratio > 1 {
			ratio = 0.5
		}
		b.stopCh = make(chan struct{})
		b.doneCh = make(chan struct{})
		go b.runGC(cfg.GCInterval, ratio)
	}

	logger.Info(context.Background(), "Badger database opened", log.Fields{"path": cfg.Path, "inMemory": cfg.InMemory})
	return b, nil
}

func (b *BadgerDatabase) runGC(interval time.Duration, ratio float64) {
	defer close(b.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopCh:
			return
		case <-ticker.C:
			err := b.db.RunValueLogGC(ratio)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				b.logger.Warn(context.Background(), "Badger value log GC error", log.Fields{"error": err})
			}
		}
	}
}

// Close stops GC and closes the store.
func (b *BadgerDatabase) Close() error {
	if b.stopCh != nil {
		close(b.stopCh)
		<-b.doneCh
	}
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("failed to close badger database: %w", err)
	}
	return nil
}
