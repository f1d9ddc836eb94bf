package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr != ":9080" {
		t.Errorf("addr = %q, want :9080", cfg.Addr)
	}
	if cfg.Store != StoreMemory {
		t.Errorf("store = %q, want memory", cfg.Store)
	}
	if cfg.DefaultRecentHours != 24 {
		t.Errorf("default_recent_hours = %d, want 24", cfg.DefaultRecentHours)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("BUGBOARD_ADDR", ":7070")
	t.Setenv("BUGBOARD_LOG_LEVEL", "debug")
	t.Setenv("BUGBOARD_MAX_LEADERBOARD_LIMIT", "10")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr != ":7070" {
		t.Errorf("addr = %q, want :7070", cfg.Addr)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log_level = %q, want debug", cfg.LogLevel)
	}
	if cfg.MaxLeaderboardLimit != 10 {
		t.Errorf("max_leaderboard_limit = %d, want 10", cfg.MaxLeaderboardLimit)
	}
}

func TestLoadFileThenEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "addr: \":6060\"\nlog_level: warn\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("BUGBOARD_CONFIG", path)
	t.Setenv("BUGBOARD_LOG_LEVEL", "error")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr != ":6060" {
		t.Errorf("addr = %q, want file value :6060", cfg.Addr)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("log_level = %q, want env value error", cfg.LogLevel)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"unknown store", map[string]string{"BUGBOARD_STORE": "redis"}},
		{"postgres without dsn", map[string]string{"BUGBOARD_STORE": "postgres"}},
		{"zero storage timeout", map[string]string{"BUGBOARD_STORAGE_TIMEOUT_MS": "0"}},
		{"negative lock timeout", map[string]string{"BUGBOARD_LOCK_TIMEOUT_MS": "-1"}},
		{"zero leaderboard limit", map[string]string{"BUGBOARD_MAX_LEADERBOARD_LIMIT": "0"}},
		{"oversized recent window", map[string]string{"BUGBOARD_DEFAULT_RECENT_HOURS": "100000"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load(context.Background())
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("got %v, want ErrInvalidConfig", err)
			}
		})
	}
}
