package log

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindnoscape/web-app/src/pkg/model"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWriterLogger_FlushesOnClose(t *testing.T) {
	var buf syncBuffer
	logger := NewWriterLogger(&buf, true)

	ctx := context.Background()
	logger.Command(ctx, "node add", Fields{"parent": "1"})
	logger.Error(ctx, "save failed", Fields{"status": 500})
	logger.Info(ctx, "loaded", nil)
	logger.Debug(ctx, "frame", nil)

	require.NoError(t, logger.Close())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3, "debug is disabled by default")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "node add", entry["msg"])
	assert.Equal(t, "1", entry["parent"])
}

func TestLogger_InfoDisabled(t *testing.T) {
	var buf syncBuffer
	logger := NewWriterLogger(&buf, false)

	logger.Info(context.Background(), "hidden", nil)
	require.NoError(t, logger.Close())

	assert.Empty(t, buf.String())
}

func TestLogger_SendAfterCloseDoesNotBlock(t *testing.T) {
	logger := Discard()
	require.NoError(t, logger.Close())

	for i := 0; i < 500; i++ {
		logger.Error(context.Background(), "late", nil)
	}
	assert.NoError(t, logger.Close())
}

func TestNewLogger_Files(t *testing.T) {
	dir := t.TempDir()
	cfg := &model.Config{
		LogFolder:  dir,
		CommandLog: "commands.log",
		ErrorLog:   "errors.log",
		InfoLog:    "info.log",
	}

	logger, err := NewLogger(cfg, true)
	require.NoError(t, err)

	logger.Command(context.Background(), "user login", nil)
	logger.Warn(context.Background(), "pruned", Fields{"count": 2})
	require.NoError(t, logger.Close())

	commands, err := os.ReadFile(filepath.Join(dir, "commands.log"))
	require.NoError(t, err)
	assert.Contains(t, string(commands), "user login")

	errs, err := os.ReadFile(filepath.Join(dir, "errors.log"))
	require.NoError(t, err)
	assert.Contains(t, string(errs), "pruned")
}

func TestNewLogger_NilConfig(t *testing.T) {
	_, err := NewLogger(nil, false)
	assert.Error(t, err)
}
