// Package config provides functionality for loading, saving, and managing
// application configuration settings.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"mindnoscape/web-app/src/pkg/model"
)

// EnvConfigPath names the environment variable that overrides the config file location.
const EnvConfigPath = "MINDNOSCAPE_CONFIG"

// Global variables to store the current configuration and its file path.
var (
	currentConfig *model.Config
	configPath    = "./data/config.json"
)

// ConfigDefault returns the configuration written on first run.
func ConfigDefault() *model.Config {
	return &model.Config{
		DatabaseType:        "sqlite",
		DatabaseDir:         "./data",
		DatabaseFile:        "mindnoscape.db",
		BadgerGCInterval:    10,
		LogFolder:           "./logs",
		CommandLog:          "commands.log",
		ErrorLog:            "errors.log",
		InfoLog:             "info.log",
		DefaultUser:         "admin@mindnoscape.local",
		DefaultUserActive:   false,
		DefaultUserPassword: "",
		ServerAddr:          ":5000",
		AllowedOrigins:      []string{"http://localhost:5173"},
		SessionTimeout:      24 * 60,
		CleanupInterval:     5,
		AuthRateLimit:       1,
		AuthRateBurst:       5,
		APIBaseURL:          "http://localhost:5000/api",
		HistoryFile:         "./data/history.txt",
		CredentialFile:      "",
		FrameInterval:       16,
	}
}

// ConfigLoad loads the configuration from the path named by MINDNOSCAPE_CONFIG,
// or from ./data/config.json when the variable is unset.
func ConfigLoad() error {
	path := configPath
	if p := os.Getenv(EnvConfigPath); p != "" {
		path = p
	}
	return ConfigLoadFrom(path)
}

// ConfigLoadFrom loads the configuration file at path. The format follows the
// extension: .yaml/.yml, .toml, anything else is JSON.
// If the file doesn't exist, it creates a default configuration.
func ConfigLoadFrom(path string) error {
	configPath = path

	// Ensure the data directory exists
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := ConfigDefault()
		applyEnv(cfg)
		if err := ConfigSave(cfg); err != nil {
			return fmt.Errorf("failed to create default config: %w", err)
		}
		currentConfig = cfg
		return nil
	}

	file, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	// Start from defaults so a partial file only overrides what it names
	cfg := ConfigDefault()
	if err := decode(configPath, file, cfg); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = "sqlite"
	}
	applyEnv(cfg)

	currentConfig = cfg
	return nil
}

// ConfigSave saves the provided configuration to the current config path.
func ConfigSave(cfg *model.Config) error {
	data, err := encode(configPath, cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// ConfigGet returns the current configuration.
func ConfigGet() *model.Config {
	return currentConfig
}

// ConfigSet replaces the current configuration without touching disk.
func ConfigSet(cfg *model.Config) {
	currentConfig = cfg
}

func format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	default:
		return "json"
	}
}

func decode(path string, data []byte, cfg *model.Config) error {
	switch format(path) {
	case "yaml":
		return yaml.Unmarshal(data, cfg)
	case "toml":
		_, err := toml.Decode(string(data), cfg)
		return err
	default:
		return json.Unmarshal(data, cfg)
	}
}

func encode(path string, cfg *model.Config) ([]byte, error) {
	switch format(path) {
	case "yaml":
		return yaml.Marshal(cfg)
	case "toml":
		var sb strings.Builder
		if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
			return nil, err
		}
		return []byte(sb.String()), nil
	default:
		return json.MarshalIndent(cfg, "", "  ")
	}
}

// applyEnv overrides a few deployment settings from the environment.
func applyEnv(cfg *model.Config) {
	if v := os.Getenv("MINDNOSCAPE_ADDR"); v != "" {
		cfg.ServerAddr = v
	}
	if v := os.Getenv("MINDNOSCAPE_DB_TYPE"); v != "" {
		cfg.DatabaseType = v
	}
	if v := os.Getenv("MINDNOSCAPE_API_URL"); v != "" {
		cfg.APIBaseURL = v
	}
}
