// Package config loads store configuration from config.json files with
// environment variable overrides. Project config overrides global config;
// environment variables override both.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/devkeep/devkeep/internal/fsjson"
)

// Config is the store configuration kept at each scope root.
type Config struct {
	Rebuild  RebuildConfig  `json:"rebuild"`
	Sessions SessionsConfig `json:"sessions"`
}

// RebuildConfig controls index compaction.
type RebuildConfig struct {
	// ThresholdEntries is the log-file count at which callers should
	// trigger a rebuild. Advisory only.
	ThresholdEntries int `json:"threshold_entries" env:"DEVKEEP_REBUILD_THRESHOLD"`
}

// SessionsConfig controls session tracking behavior.
type SessionsConfig struct {
	// StaleHours is the inactivity window after which a session counts
	// as stale for cleanup.
	StaleHours int `json:"stale_hours" env:"DEVKEEP_SESSIONS_STALE_HOURS"`
	// ShowGlobal includes global-scope sessions in listings made from
	// inside a project.
	ShowGlobal bool `json:"show_global" env:"DEVKEEP_SESSIONS_SHOW_GLOBAL"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Rebuild:  RebuildConfig{ThresholdEntries: 20},
		Sessions: SessionsConfig{StaleHours: 24, ShowGlobal: true},
	}
}

// Load reads configuration for a scope pair. Paths that do not exist are
// skipped; malformed config files are an error (a broken config is a
// caller problem, unlike a broken log file).
func Load(globalPath, projectPath string) (Config, error) {
	cfg := Default()

	for _, path := range []string{globalPath, projectPath} {
		if path == "" {
			continue
		}
		if _, err := fsjson.Read(path, &cfg); err != nil {
			return cfg, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("config: parse env: %w", err)
	}
	return cfg, nil
}
