package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if BUGBOARD_CONFIG is set
//  3. env (prefix BUGBOARD_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("BUGBOARD_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: BUGBOARD_ADDR, BUGBOARD_STORAGE_TIMEOUT_MS, ...
	// Keys map to the flat koanf tags on the struct, underscores preserved.
	envProvider := env.Provider("BUGBOARD_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "bugboard_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	switch {
	case cfg.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case cfg.Store != StoreMemory && cfg.Store != StorePostgres:
		return fmt.Errorf("%w: store must be %q or %q", ErrInvalidConfig, StoreMemory, StorePostgres)
	case cfg.Store == StorePostgres && cfg.PostgresDSN == "":
		return fmt.Errorf("%w: postgres_dsn required for the postgres store", ErrInvalidConfig)
	case cfg.StorageTimeoutMS <= 0:
		return fmt.Errorf("%w: storage_timeout_ms must be positive", ErrInvalidConfig)
	case cfg.LockTimeoutMS <= 0:
		return fmt.Errorf("%w: lock_timeout_ms must be positive", ErrInvalidConfig)
	case cfg.MaxLeaderboardLimit < 1:
		return fmt.Errorf("%w: max_leaderboard_limit must be at least 1", ErrInvalidConfig)
	case cfg.DefaultRecentHours < 1 || cfg.DefaultRecentHours > cfg.MaxRecentHours:
		return fmt.Errorf("%w: default_recent_hours must be in [1, max_recent_hours]", ErrInvalidConfig)
	}
	return nil
}
