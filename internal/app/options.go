package service

import (
	"time"

	"github.com/huntlab/bugboard/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStorageTimeout bounds every storage operation.
func WithStorageTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.storageTimeout = d
		}
	}
}

// WithLockTimeout bounds the per-participant lock wait on ingestion.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// WithRecentWindow sets the default and maximum trailing window, in hours,
// for recent discovery queries.
func WithRecentWindow(defaultHours, maxHours int) Option {
	return func(s *Service) {
		if defaultHours > 0 {
			s.defaultRecentHours = defaultHours
		}
		if maxHours >= defaultHours && maxHours > 0 {
			s.maxRecentHours = maxHours
		}
	}
}

// WithAsyncStatsRefresh switches the stats cache from lazy rebuild on read
// to a coalescing background refresher.
func WithAsyncStatsRefresh(enabled bool) Option {
	return func(s *Service) {
		s.statsRefreshAsync = enabled
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}
