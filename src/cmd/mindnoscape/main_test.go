package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindnoscape/web-app/src/pkg/api"
	"mindnoscape/web-app/src/pkg/data"
	"mindnoscape/web-app/src/pkg/event"
	"mindnoscape/web-app/src/pkg/log"
	"mindnoscape/web-app/src/pkg/model"
	"mindnoscape/web-app/src/pkg/session"
	"mindnoscape/web-app/src/pkg/storage"
)

// writeConfig writes a YAML config that keeps every file under dir.
func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf(`database_type: badger
database_dir: %[1]s/db
log_folder: %[1]s/logs
history_file: %[1]s/history.txt
credential_file: %[1]s/session.json
server_addr: "127.0.0.1:0"
session_timeout_minutes: 60
cleanup_interval_minutes: 1
auth_rate_limit: 100
auth_rate_burst: 100
`, dir)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "edit", "logs"})
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, err := loadConfig(&rootOptions{configPath: writeConfig(t, dir)})
	require.NoError(t, err)
	assert.Equal(t, "badger", cfg.DatabaseType)
	assert.Equal(t, dir+"/logs", cfg.LogFolder)
	assert.Equal(t, 16, cfg.FrameInterval, "unset keys keep their defaults")
}

func TestServe_StopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	cfg, err := loadConfig(&rootOptions{configPath: writeConfig(t, dir)})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg, log.Discard()) }()

	time.Sleep(200 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}

func TestLogs_MissingDirectory(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"logs", filepath.Join(t.TempDir(), "nope")})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	assert.Error(t, root.Execute())
}

func TestEdit_RunsScript(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := log.Discard()
	bdb, err := storage.OpenBadger(storage.BadgerConfig{InMemory: true}, logger)
	require.NoError(t, err)
	store := storage.NewBadgerStorage(bdb)
	t.Cleanup(func() { store.Close() })

	cfg := &model.Config{AuthRateLimit: 100, AuthRateBurst: 100}
	em := event.NewEventManager(logger)
	dm, err := data.NewDataManager(store.UserStore, store.MindmapStore, cfg, em, logger)
	require.NoError(t, err)
	srv, err := api.NewServer(dm, session.NewSessionManager(time.Hour, time.Minute, em, logger), cfg, logger)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	script := filepath.Join(dir, "build.txt")
	require.NoError(t, os.WriteFile(script, []byte("user register lin@example.com secret1\nnode add Plans\nmindmap save\n"), 0644))

	root := newRootCmd()
	root.SetArgs([]string{"--config", writeConfig(t, dir), "edit", "--api", ts.URL + "/api", script})
	require.NoError(t, root.Execute())

	// the session outlives the run
	_, err = os.Stat(filepath.Join(dir, "session.json"))
	assert.NoError(t, err)

	list, err := dm.MindmapManager.MindmapList(context.Background(), mustUserID(t, dm, "lin@example.com"))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].NodeCount)
}

func mustUserID(t *testing.T, dm *data.DataManager, email string) string {
	t.Helper()
	users, err := dm.UserManager.UserGet(context.Background(), model.UserInfo{Email: email}, model.UserFilter{Email: true})
	require.NoError(t, err)
	require.Len(t, users, 1)
	return users[0].ID
}
