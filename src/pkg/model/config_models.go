// Package model defines the data structures used throughout the Mindnoscape application.
package model

// Config holds the settings shared by the API server and the editor client.
type Config struct {
	DatabaseType        string   `json:"database_type" yaml:"database_type" toml:"database_type"`
	DatabaseDir         string   `json:"database_dir" yaml:"database_dir" toml:"database_dir"`
	DatabaseFile        string   `json:"database_file" yaml:"database_file" toml:"database_file"`
	BadgerGCInterval    int      `json:"badger_gc_interval_minutes" yaml:"badger_gc_interval_minutes" toml:"badger_gc_interval_minutes"`
	LogFolder           string   `json:"log_folder" yaml:"log_folder" toml:"log_folder"`
	CommandLog          string   `json:"command_log" yaml:"command_log" toml:"command_log"`
	ErrorLog            string   `json:"error_log" yaml:"error_log" toml:"error_log"`
	InfoLog             string   `json:"info_log" yaml:"info_log" toml:"info_log"`
	DebugLog            bool     `json:"debug_log" yaml:"debug_log" toml:"debug_log"`
	DefaultUser         string   `json:"default_user" yaml:"default_user" toml:"default_user"`
	DefaultUserActive   bool     `json:"default_user_active" yaml:"default_user_active" toml:"default_user_active"`
	DefaultUserPassword string   `json:"default_user_password" yaml:"default_user_password" toml:"default_user_password"`
	ServerAddr          string   `json:"server_addr" yaml:"server_addr" toml:"server_addr"`
	AllowedOrigins      []string `json:"allowed_origins" yaml:"allowed_origins" toml:"allowed_origins"`
	SessionTimeout      int      `json:"session_timeout_minutes" yaml:"session_timeout_minutes" toml:"session_timeout_minutes"`
	CleanupInterval     int      `json:"cleanup_interval_minutes" yaml:"cleanup_interval_minutes" toml:"cleanup_interval_minutes"`
	AuthRateLimit       float64  `json:"auth_rate_limit" yaml:"auth_rate_limit" toml:"auth_rate_limit"`
	AuthRateBurst       int      `json:"auth_rate_burst" yaml:"auth_rate_burst" toml:"auth_rate_burst"`
	APIBaseURL          string   `json:"api_base_url" yaml:"api_base_url" toml:"api_base_url"`
	HistoryFile         string   `json:"history_file" yaml:"history_file" toml:"history_file"`
	CredentialFile      string   `json:"credential_file" yaml:"credential_file" toml:"credential_file"`
	FrameInterval       int      `json:"frame_interval_ms" yaml:"frame_interval_ms" toml:"frame_interval_ms"`
}
