// Sheetmirror - Spreadsheet Snapshot Mirror
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sheetmirror

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/sheetmirror/config.yaml",
	"/etc/sheetmirror/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		OAuth: OAuthConfig{
			TokenURL: "https://oauth2.googleapis.com/token",
		},
		Sheets: SheetsConfig{
			BaseURL:           "https://sheets.googleapis.com",
			SkipFirst:         true,
			RequestTimeout:    60 * time.Second,
			RequestsPerMinute: 0,
			CircuitBreaker:    true,
		},
		Sync: SyncConfig{
			Interval: 30 * time.Second,
		},
		Storage: StorageConfig{
			DataDir:      "public",
			StateBackend: "file",
		},
		Snapshot: SnapshotConfig{
			Naming: "id",
		},
		Server: ServerConfig{
			Enabled:         false,
			Host:            "0.0.0.0",
			Port:            8000,
			Timeout:         30 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// LoadWithKoanf loads configuration with layered sources. Precedence: ENV > File > Defaults.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file, or "" if none.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields splits comma-separated env values for known slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

var envMappings = map[string]string{
	// credentials, named as the original deployment's .env
	"refresh_token": "oauth.refresh_token",
	"client_id":     "oauth.client_id",
	"client_secret": "oauth.client_secret",
	"token_url":     "oauth.token_url",

	"spreadsheet_id":             "sheets.spreadsheet_id",
	"sheets_base_url":            "sheets.base_url",
	"sheets_skip_first":          "sheets.skip_first",
	"sheets_request_timeout":     "sheets.request_timeout",
	"sheets_requests_per_minute": "sheets.requests_per_minute",
	"sheets_circuit_breaker":     "sheets.circuit_breaker",

	"sync_interval": "sync.interval",

	"data_dir":      "storage.data_dir",
	"state_backend": "storage.state_backend",
	"state_path":    "storage.state_path",

	"snapshot_naming": "snapshot.naming",

	"server_enabled":    "server.enabled",
	"http_host":         "server.host",
	"http_port":         "server.port",
	"http_timeout":      "server.timeout",
	"cors_origins":      "server.cors_origins",
	"rate_limit_reqs":   "server.rate_limit_reqs",
	"rate_limit_window": "server.rate_limit_window",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc maps known environment variable names to koanf paths.
// Unknown variables return "" and are ignored.
//
//	REFRESH_TOKEN -> oauth.refresh_token
//	SYNC_INTERVAL -> sync.interval
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
