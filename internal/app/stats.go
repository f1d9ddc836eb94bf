package service

import (
	"context"
	"errors"
	"sync"
	"time"

	repository "github.com/huntlab/bugboard/internal/adapters/repository"
	"github.com/huntlab/bugboard/internal/domain/model"
	"github.com/huntlab/bugboard/pkg/logger"
	"github.com/huntlab/bugboard/pkg/metrics"
)

type statsCacheConfig struct {
	recentHours int
	timeout     time.Duration
	clock       func() time.Time
	logger      logger.Logger
}

// statsCache holds the derived population rollup for the stats endpoint.
// Every Created ingestion invalidates it; the next read rebuilds it from
// storage. With the background refresher enabled, invalidations also wake
// a goroutine that rebuilds ahead of the next read, coalescing bursts into
// a single rebuild.
type statsCache struct {
	store repository.Store
	cfg   statsCacheConfig

	mu     sync.Mutex
	valid  bool
	cached model.Stats

	notify   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func newStatsCache(store repository.Store, cfg statsCacheConfig) *statsCache {
	if cfg.clock == nil {
		cfg.clock = time.Now
	}
	return &statsCache{
		store: store,
		cfg:   cfg,
		done:  make(chan struct{}),
	}
}

// invalidate marks the cache stale and, when the refresher is running,
// wakes it. The send is non-blocking so a burst of ingestions collapses
// into one pending refresh.
func (c *statsCache) invalidate() {
	c.mu.Lock()
	c.valid = false
	c.mu.Unlock()

	if c.notify != nil {
		select {
		case c.notify <- struct{}{}:
		default:
		}
	}
}

// current returns the cached rollup, rebuilding it when stale. The mutex
// is held across the rebuild so concurrent readers wait for one rebuild
// instead of racing their own.
func (c *statsCache) current(ctx context.Context) (model.Stats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid {
		return c.cached, nil
	}

	stats, err := c.rebuild(ctx)
	if err != nil {
		return model.Stats{}, err
	}

	c.cached = stats
	c.valid = true
	return stats, nil
}

// rebuild recomputes the rollup from storage. Caller holds c.mu.
func (c *statsCache) rebuild(ctx context.Context) (model.Stats, error) {
	opCtx, cancel := context.WithTimeout(ctx, c.cfg.timeout)
	defer cancel()

	start := c.cfg.clock()

	totals, err := c.store.Totals(opCtx)
	if err != nil {
		return model.Stats{}, err
	}

	since := c.cfg.clock().Add(-time.Duration(c.cfg.recentHours) * time.Hour)
	recent, err := c.store.CountDiscoveriesSince(opCtx, since)
	if err != nil {
		return model.Stats{}, err
	}

	var top *model.Participant
	tp, err := c.store.TopParticipant(opCtx)
	switch {
	case err == nil:
		top = &tp
	case errors.Is(err, repository.ErrNotFound):
		// Empty population.
	default:
		return model.Stats{}, err
	}

	avg := 0.0
	if totals.Discoveries > 0 {
		avg = float64(totals.Points) / float64(totals.Discoveries)
	}

	stats := model.Stats{
		Participants:      totals.Participants,
		TotalDiscoveries:  totals.Discoveries,
		TotalPoints:       totals.Points,
		AvgPointsPerEntry: avg,
		RecentDiscoveries: recent,
		RecentWindowHours: c.cfg.recentHours,
		TopParticipant:    top,
		GeneratedAt:       c.cfg.clock(),
	}

	metrics.RecordStatsRebuild(c.cfg.clock().Sub(start).Seconds())
	metrics.UpdateParticipantsTotal(totals.Participants)
	metrics.UpdateDiscoveriesTotal(totals.Discoveries)

	// Write-through for stores that persist a stats row. Failures only
	// log; the row is never a source of truth.
	if sp, ok := c.store.(repository.StatsPersister); ok {
		if err := sp.SaveStats(opCtx, stats); err != nil && c.cfg.logger != nil {
			c.cfg.logger.Warn(ctx, "stats write-through failed", logger.Error(err))
		}
	}

	return stats, nil
}

// startRefresher launches the coalescing background rebuild loop.
func (c *statsCache) startRefresher(ctx context.Context) {
	c.notify = make(chan struct{}, 1)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-c.done:
				return
			case <-ctx.Done():
				return
			case <-c.notify:
				c.mu.Lock()
				if c.valid {
					c.mu.Unlock()
					continue
				}
				stats, err := c.rebuild(context.Background())
				if err == nil {
					c.cached = stats
					c.valid = true
				} else if c.cfg.logger != nil {
					c.cfg.logger.Warn(ctx, "background stats rebuild failed", logger.Error(err))
				}
				c.mu.Unlock()
			}
		}
	}()
}

func (c *statsCache) stop() {
	c.stopOnce.Do(func() { close(c.done) })
	c.wg.Wait()
}
