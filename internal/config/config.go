// Package config defines service configuration structures and loading hooks.
package config

import "time"

// Store backend selectors.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Store selects the storage backend: "memory" or "postgres".
	Store string `koanf:"store"`

	// PostgresDSN is the connection string for the postgres backend.
	PostgresDSN string `koanf:"postgres_dsn"`

	// StorageTimeoutMS bounds every storage operation.
	StorageTimeoutMS int `koanf:"storage_timeout_ms"`

	// LockTimeoutMS bounds the per-participant lock wait on ingestion.
	LockTimeoutMS int `koanf:"lock_timeout_ms"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// DefaultRecentHours is the default trailing window for recent
	// discovery queries.
	DefaultRecentHours int `koanf:"default_recent_hours"`

	// MaxRecentHours caps the caller-supplied trailing window.
	MaxRecentHours int `koanf:"max_recent_hours"`

	// StatsRefreshAsync switches the stats cache from lazy rebuild on
	// read to a coalescing background refresher.
	StatsRefreshAsync bool `koanf:"stats_refresh_async"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		Store:               StoreMemory,
		StorageTimeoutMS:    5_000,
		LockTimeoutMS:       5_000,
		MaxLeaderboardLimit: 100,
		DefaultRecentHours:  24,
		MaxRecentHours:      24 * 30,
		StatsRefreshAsync:   false,
	}
}

// StorageTimeout returns the storage deadline as a duration.
func (c *Config) StorageTimeout() time.Duration {
	return time.Duration(c.StorageTimeoutMS) * time.Millisecond
}

// LockTimeout returns the lock wait deadline as a duration.
func (c *Config) LockTimeout() time.Duration {
	return time.Duration(c.LockTimeoutMS) * time.Millisecond
}
