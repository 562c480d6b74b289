// Sheetmirror - Spreadsheet Snapshot Mirror
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sheetmirror

// Package config loads sheetmirror configuration.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in values from defaultConfig()
//  2. Config File: optional YAML file (CONFIG_PATH, config.yaml, /etc/sheetmirror/config.yaml)
//  3. Environment Variables: REFRESH_TOKEN, CLIENT_ID, SPREADSHEET_ID, ...
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Failed to load config")
//	}
//	tokens := sync.NewTokenProvider(&cfg.OAuth, httpClient)
package config

import (
	"path/filepath"
	"time"
)

// Config holds all application configuration.
type Config struct {
	OAuth      OAuthConfig      `koanf:"oauth"`
	Sheets     SheetsConfig     `koanf:"sheets"`
	Sync       SyncConfig       `koanf:"sync"`
	Storage    StorageConfig    `koanf:"storage"`
	Snapshot   SnapshotConfig   `koanf:"snapshot"`
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// OAuthConfig holds the long-lived refresh credentials.
type OAuthConfig struct {
	TokenURL     string `koanf:"token_url" validate:"required"`
	ClientID     string `koanf:"client_id" validate:"required"`
	ClientSecret string `koanf:"client_secret" validate:"required"`
	RefreshToken string `koanf:"refresh_token" validate:"required"`
}

// SheetsConfig describes the spreadsheet data endpoint.
type SheetsConfig struct {
	BaseURL       string `koanf:"base_url" validate:"required"`
	SpreadsheetID string `koanf:"spreadsheet_id" validate:"required"`

	// SkipFirst excludes the first listed sheet (the index/control tab).
	SkipFirst bool `koanf:"skip_first"`

	RequestTimeout time.Duration `koanf:"request_timeout" validate:"gt=0"`

	// RequestsPerMinute caps outbound calls. 0 disables the limiter.
	RequestsPerMinute int `koanf:"requests_per_minute" validate:"gte=0"`

	CircuitBreaker bool `koanf:"circuit_breaker"`
}

// SyncConfig controls the scheduler.
type SyncConfig struct {
	Interval time.Duration `koanf:"interval" validate:"gt=0"`
}

// StorageConfig controls where snapshots and state live.
type StorageConfig struct {
	DataDir string `koanf:"data_dir" validate:"required"`

	// StateBackend is one of: file, badger, memory.
	StateBackend string `koanf:"state_backend" validate:"oneof=file badger memory"`

	// StatePath overrides the state location. Defaults to <data_dir>/data.json
	// for the file backend and <data_dir>/state.badger for badger.
	StatePath string `koanf:"state_path"`
}

// ResolvedStatePath returns StatePath or the backend-specific default.
func (s *StorageConfig) ResolvedStatePath() string {
	if s.StatePath != "" {
		return s.StatePath
	}
	if s.StateBackend == "badger" {
		return filepath.Join(s.DataDir, "state.badger")
	}
	return filepath.Join(s.DataDir, "data.json")
}

// LockPath is the single-instance lock file inside the data directory.
func (s *StorageConfig) LockPath() string {
	return filepath.Join(s.DataDir, ".sheetmirror.lock")
}

// SnapshotConfig controls snapshot file naming.
type SnapshotConfig struct {
	// Naming is "id" (<sheet_id>.json) or "slug" (<slug(title)>.json).
	Naming string `koanf:"naming" validate:"oneof=id slug"`
}

// ServerConfig controls the optional snapshot HTTP server.
type ServerConfig struct {
	Enabled bool          `koanf:"enabled"`
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port" validate:"gte=1,lte=65535"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`

	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"gte=0"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig mirrors logging.Config for the loadable fields.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// SupervisorConfig tunes the suture tree.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold" validate:"gt=0"`
	FailureDecay     float64       `koanf:"failure_decay" validate:"gt=0"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// Load loads configuration from defaults, optional config file and environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
