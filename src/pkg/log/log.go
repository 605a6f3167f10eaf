// Package log provides functionality for logging commands and errors
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"mindnoscape/web-app/src/pkg/model"
)

// Fields carries structured attributes attached to a log entry.
type Fields map[string]interface{}

// LogMessage represents a message to be logged
type LogMessage struct {
	Level   LogLevel
	Content string
	Fields  Fields
	Context context.Context
}

// Logger writes commands, errors and informational entries to separate JSON streams.
type Logger struct {
	commandLogger *slog.Logger
	errorLogger   *slog.Logger
	infoLogger    *slog.Logger
	closers       []io.Closer
	logChan       chan LogMessage
	done          chan struct{}
	closeOnce     sync.Once
	wg            sync.WaitGroup
	mu            sync.RWMutex
	infoEnabled   bool
	debugEnabled  bool
}

// NewLogger creates a new Logger instance with specified log folder and file names
func NewLogger(cfg *model.Config, infoEnabled bool) (*Logger, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config not initialized")
	}

	if err := os.MkdirAll(cfg.LogFolder, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	var files []io.Closer
	open := func(name string) (*os.File, error) {
		f, err := os.OpenFile(filepath.Join(cfg.LogFolder, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			for _, c := range files {
				c.Close()
			}
			return nil, err
		}
		files = append(files, f)
		return f, nil
	}

	commandFile, err := open(cfg.CommandLog)
	if err != nil {
		return nil, fmt.Errorf("failed to open command log file: %w", err)
	}
	errorFile, err := open(cfg.ErrorLog)
	if err != nil {
		return nil, fmt.Errorf("failed to open error log file: %w", err)
	}
	infoFile, err := open(cfg.InfoLog)
	if err != nil {
		return nil, fmt.Errorf("failed to open info log file: %w", err)
	}

	l := newLogger(commandFile, errorFile, infoFile, infoEnabled, cfg.DebugLog)
	l.closers = files
	return l, nil
}

// NewWriterLogger sends every stream to w. Used by tests and by the editor's
// stderr fallback.
func NewWriterLogger(w io.Writer, infoEnabled bool) *Logger {
	return newLogger(w, w, w, infoEnabled, false)
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewWriterLogger(io.Discard, false)
}

func newLogger(commandW, errorW, infoW io.Writer, infoEnabled, debugEnabled bool) *Logger {
	l := &Logger{
		commandLogger: slog.New(slog.NewJSONHandler(commandW, &slog.HandlerOptions{Level: slog.LevelInfo})),
		errorLogger:   slog.New(slog.NewJSONHandler(errorW, &slog.HandlerOptions{Level: slog.LevelWarn})),
		infoLogger:    slog.New(slog.NewJSONHandler(infoW, &slog.HandlerOptions{Level: slog.LevelDebug})),
		logChan:       make(chan LogMessage, 100),
		done:          make(chan struct{}),
		infoEnabled:   infoEnabled,
		debugEnabled:  debugEnabled,
	}

	l.wg.Add(1)
	go l.processLogs()

	return l
}

// processLogs handles incoming log messages
func (l *Logger) processLogs() {
	defer l.wg.Done()
	for {
		select {
		case msg := <-l.logChan:
			l.write(msg)
		case <-l.done:
			// Flush what is already queued
			for {
				select {
				case msg := <-l.logChan:
					l.write(msg)
				default:
					return
				}
			}
		}
	}
}

func (l *Logger) write(msg LogMessage) {
	attrs := make([]any, 0, len(msg.Fields)*2)
	for k, v := range msg.Fields {
		attrs = append(attrs, k, v)
	}

	switch msg.Level {
	case LevelCommand:
		l.commandLogger.Log(msg.Context, msg.Level.toSlogLevel(), msg.Content, attrs...)
	case LevelError, LevelWarn:
		l.errorLogger.Log(msg.Context, msg.Level.toSlogLevel(), msg.Content, attrs...)
	default:
		l.infoLogger.Log(msg.Context, msg.Level.toSlogLevel(), msg.Content, attrs...)
	}
}

func (l *Logger) send(ctx context.Context, level LogLevel, msg string, fields Fields) {
	if l == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-l.done:
		return
	default:
	}
	select {
	case l.logChan <- LogMessage{Level: level, Content: msg, Fields: fields, Context: ctx}:
	case <-l.done:
	}
}

// Command records a user-issued command.
func (l *Logger) Command(ctx context.Context, msg string, fields Fields) {
	l.send(ctx, LevelCommand, msg, fields)
}

// Error records a failure.
func (l *Logger) Error(ctx context.Context, msg string, fields Fields) {
	l.send(ctx, LevelError, msg, fields)
}

// Warn records a recoverable anomaly.
func (l *Logger) Warn(ctx context.Context, msg string, fields Fields) {
	l.send(ctx, LevelWarn, msg, fields)
}

func (l *Logger) Info(ctx context.Context, msg string, fields Fields) {
	if l == nil || !l.isInfoEnabled() {
		return
	}
	l.send(ctx, LevelInfo, msg, fields)
}

func (l *Logger) Debug(ctx context.Context, msg string, fields Fields) {
	if l == nil || !l.isDebugEnabled() {
		return
	}
	l.send(ctx, LevelDebug, msg, fields)
}

func (l *Logger) isInfoEnabled() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.infoEnabled
}

func (l *Logger) isDebugEnabled() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.debugEnabled
}

// SetInfoEnabled enables or disables info logging
func (l *Logger) SetInfoEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infoEnabled = enabled
}

// SetDebugEnabled enables or disables debug logging
func (l *Logger) SetDebugEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debugEnabled = enabled
}

// Close stops the logging goroutine, flushes pending entries and closes all log files.
// Entries sent after Close are dropped.
func (l *Logger) Close() error {
	var firstErr error
	l.closeOnce.Do(func() {
		close(l.done)
		l.wg.Wait()

		for _, c := range l.closers {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("failed to close log file: %w", err)
			}
		}
	})
	return firstErr
}
