package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigLoadFrom_CreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "config.json")

	require.NoError(t, ConfigLoadFrom(path))

	cfg := ConfigGet()
	require.NotNil(t, cfg)
	assert.Equal(t, "sqlite", cfg.DatabaseType)
	assert.Equal(t, ":5000", cfg.ServerAddr)

	_, err := os.Stat(path)
	assert.NoError(t, err, "default config should be written on first load")
}

func TestConfigLoadFrom_Formats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"json", "config.json", `{"database_type":"badger","server_addr":":7000"}`},
		{"yaml", "config.yaml", "database_type: badger\nserver_addr: \":7000\"\n"},
		{"toml", "config.toml", "database_type = \"badger\"\nserver_addr = \":7000\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			require.NoError(t, ConfigLoadFrom(path))

			cfg := ConfigGet()
			assert.Equal(t, "badger", cfg.DatabaseType)
			assert.Equal(t, ":7000", cfg.ServerAddr)
			// Unnamed fields keep their defaults
			assert.Equal(t, "commands.log", cfg.CommandLog)
		})
	}
}

func TestConfigLoadFrom_EnvOverride(t *testing.T) {
	t.Setenv("MINDNOSCAPE_ADDR", ":9999")
	path := filepath.Join(t.TempDir(), "config.json")

	require.NoError(t, ConfigLoadFrom(path))
	assert.Equal(t, ":9999", ConfigGet().ServerAddr)
}

func TestConfigLoadFrom_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	assert.Error(t, ConfigLoadFrom(path))
}
