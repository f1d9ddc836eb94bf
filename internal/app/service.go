// Package service provides the core ingestion and query service behind the
// HTTP API. It serializes submissions per participant, bounds every storage
// call with a deadline, and translates storage failures into the service
// error taxonomy.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	repository "github.com/huntlab/bugboard/internal/adapters/repository"
	"github.com/huntlab/bugboard/internal/domain/model"
	"github.com/huntlab/bugboard/internal/domain/rank"
	"github.com/huntlab/bugboard/pkg/keylock"
	"github.com/huntlab/bugboard/pkg/logger"
	"github.com/huntlab/bugboard/pkg/metrics"
)

// Input bounds enforced on every submission.
const (
	maxParticipantIDLen = 100
	maxDisplayNameLen   = 100
	maxEventKindLen     = 200
	maxDescriptionLen   = 1000
)

const participantDetailWindow = 7 * 24 * time.Hour

// ParticipantDetail is the full per-participant view: the aggregate, its
// current competition rank, the trailing-week activity count, and the
// participant's ledger entries newest-first.
type ParticipantDetail struct {
	Participant model.Participant
	Rank        int
	RecentCount int
	Discoveries []model.Discovery
}

// Health is the liveness snapshot served by the health endpoint.
type Health struct {
	Status       string `json:"status"`
	Participants int    `json:"participants"`
	Discoveries  int    `json:"discoveries"`
	TotalPoints  int64  `json:"total_points"`
}

// Service implements the API dependencies for the scoring engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	store  repository.Store
	locks  *keylock.KeyLock
	ranker rank.Calculator
	stats  *statsCache

	// Configuration
	storageTimeout     time.Duration
	lockTimeout        time.Duration
	defaultRecentHours int
	maxRecentHours     int
	statsRefreshAsync  bool
	clock              func() time.Time

	// State
	started bool

	// Logging
	logger logger.Logger
}

// New constructs a Service over store with default configuration.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:              store,
		storageTimeout:     5 * time.Second,
		lockTimeout:        5 * time.Second,
		defaultRecentHours: 24,
		maxRecentHours:     24 * 30,
		clock:              time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.locks = keylock.New()
	s.ranker = rank.NewScanCalculator(s.store)
	s.stats = newStatsCache(s.store, statsCacheConfig{
		recentHours: s.defaultRecentHours,
		timeout:     s.storageTimeout,
		clock:       s.clock,
		logger:      s.logger.Named("stats"),
	})
	if s.statsRefreshAsync {
		s.stats.startRefresher(ctx)
	}

	s.started = true
	s.logger.Info(ctx, "scoring service started",
		logger.Duration("storageTimeout", s.storageTimeout),
		logger.Duration("lockTimeout", s.lockTimeout),
		logger.Any("asyncStatsRefresh", s.statsRefreshAsync),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.stats.stop()

	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "scoring service stopped")
}

// RecordDiscovery ingests a submission. Submissions for the same
// participant are serialized; the store call is bounded by the storage
// timeout. A repeated (participant, event kind) pair resolves to
// OutcomeAlreadyRecorded without changing any state.
func (s *Service) RecordDiscovery(ctx context.Context, sub model.Submission) (model.RecordResult, error) {
	if err := validateSubmission(sub); err != nil {
		metrics.RecordDiscoveryRejected()
		return model.RecordResult{}, err
	}

	if err := s.locks.Acquire(ctx, sub.ParticipantID, s.lockTimeout); err != nil {
		if errors.Is(err, keylock.ErrAcquireTimeout) {
			metrics.RecordLockTimeout()
			return model.RecordResult{}, fmt.Errorf("%w: participant lock wait", ErrStorageTimeout)
		}
		return model.RecordResult{}, s.translateStore(err)
	}
	defer s.locks.Release(sub.ParticipantID)

	opCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	start := s.clock()
	res, err := s.store.Record(opCtx, sub)
	s.observeStoreOp("record", start, err)
	if err != nil {
		return model.RecordResult{}, s.translateStore(err)
	}

	switch res.Outcome {
	case model.OutcomeCreated:
		metrics.RecordDiscoveryCreated()
		s.stats.invalidate()
		s.logger.Debug(ctx, "discovery recorded",
			logger.String("participant", sub.ParticipantID),
			logger.String("eventKind", sub.EventKind),
			logger.Int64("points", sub.Points),
		)
	case model.OutcomeAlreadyRecorded:
		metrics.RecordDiscoveryDuplicate()
		s.logger.Debug(ctx, "duplicate submission ignored",
			logger.String("participant", sub.ParticipantID),
			logger.String("eventKind", sub.EventKind),
		)
	}

	return res, nil
}

// Leaderboard returns participants in listing order together with their
// dense competition ranks, optionally filtered by a case-insensitive
// display-name substring and capped at limit entries. Ranks are always
// relative to the whole population, not the filtered listing.
func (s *Service) Leaderboard(ctx context.Context, search string, limit int) ([]model.Participant, []int, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	start := s.clock()
	ps, err := s.store.ListParticipants(opCtx, search, limit)
	s.observeStoreOp("list_participants", start, err)
	if err != nil {
		return nil, nil, s.translateStore(err)
	}

	// An unfiltered listing is a prefix of the global order, so dense
	// ranks can be read off the slice directly.
	if search == "" {
		return ps, rank.DenseRanks(ps), nil
	}

	// A search filter drops rows, so each remaining row's rank has to be
	// resolved against the full population. One count per distinct score.
	ranks := make([]int, len(ps))
	byScore := make(map[int64]int)
	for i, p := range ps {
		r, ok := byScore[p.TotalScore]
		if !ok {
			above, err := s.store.CountScoreAbove(opCtx, p.TotalScore)
			if err != nil {
				return nil, nil, s.translateStore(err)
			}
			r = above + 1
			byScore[p.TotalScore] = r
		}
		ranks[i] = r
	}
	return ps, ranks, nil
}

// ParticipantDetail returns the aggregate, rank, trailing-week activity
// count, and ledger entries for id.
func (s *Service) ParticipantDetail(ctx context.Context, id string) (ParticipantDetail, error) {
	if strings.TrimSpace(id) == "" {
		return ParticipantDetail{}, fmt.Errorf("%w: participant id must not be empty", ErrInvalidInput)
	}

	opCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	start := s.clock()
	p, err := s.store.Participant(opCtx, id)
	s.observeStoreOp("get_participant", start, err)
	if err != nil {
		return ParticipantDetail{}, s.translateStore(err)
	}

	r, err := s.ranker.RankOf(opCtx, id)
	if err != nil {
		return ParticipantDetail{}, s.translateStore(err)
	}

	ds, err := s.store.ParticipantDiscoveries(opCtx, id)
	if err != nil {
		return ParticipantDetail{}, s.translateStore(err)
	}

	cutoff := s.clock().Add(-participantDetailWindow)
	recent := 0
	for _, d := range ds {
		if !d.DiscoveredAt.Before(cutoff) {
			recent++
		}
	}

	return ParticipantDetail{
		Participant: p,
		Rank:        r,
		RecentCount: recent,
		Discoveries: ds,
	}, nil
}

// RecentDiscoveries returns ledger entries from the trailing hours-long
// window, newest-first, along with the resolved window size. hours <= 0
// selects the default window; a window beyond the configured maximum is
// rejected.
func (s *Service) RecentDiscoveries(ctx context.Context, hours int) ([]model.Discovery, int, error) {
	if hours <= 0 {
		hours = s.defaultRecentHours
	}
	if hours > s.maxRecentHours {
		return nil, 0, fmt.Errorf("%w: window exceeds %d hours", ErrInvalidInput, s.maxRecentHours)
	}

	opCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	since := s.clock().Add(-time.Duration(hours) * time.Hour)
	start := s.clock()
	ds, err := s.store.DiscoveriesSince(opCtx, since)
	s.observeStoreOp("discoveries_since", start, err)
	if err != nil {
		return nil, 0, s.translateStore(err)
	}

	return ds, hours, nil
}

// Stats returns the cached population rollup, rebuilding it first if an
// ingestion invalidated it.
func (s *Service) Stats(ctx context.Context) (model.Stats, error) {
	st, err := s.stats.current(ctx)
	if err != nil {
		return model.Stats{}, s.translateStore(err)
	}
	return st, nil
}

// Health reports liveness along with the raw population totals.
func (s *Service) Health(ctx context.Context) (Health, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	start := s.clock()
	t, err := s.store.Totals(opCtx)
	s.observeStoreOp("totals", start, err)
	if err != nil {
		return Health{}, s.translateStore(err)
	}

	return Health{
		Status:       "ok",
		Participants: t.Participants,
		Discoveries:  t.Discoveries,
		TotalPoints:  t.Points,
	}, nil
}

// Reset purges all participants and ledger entries.
func (s *Service) Reset(ctx context.Context) error {
	opCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	start := s.clock()
	err := s.store.Reset(opCtx)
	s.observeStoreOp("reset", start, err)
	if err != nil {
		return s.translateStore(err)
	}

	s.stats.invalidate()
	metrics.UpdateParticipantsTotal(0)
	metrics.UpdateDiscoveriesTotal(0)
	s.logger.Warn(ctx, "all scoring data reset")

	return nil
}

func validateSubmission(sub model.Submission) error {
	switch {
	case strings.TrimSpace(sub.ParticipantID) == "":
		return fmt.Errorf("%w: participant id must not be empty", ErrInvalidInput)
	case len(sub.ParticipantID) > maxParticipantIDLen:
		return fmt.Errorf("%w: participant id exceeds %d characters", ErrInvalidInput, maxParticipantIDLen)
	case strings.TrimSpace(sub.DisplayName) == "":
		return fmt.Errorf("%w: display name must not be empty", ErrInvalidInput)
	case len(sub.DisplayName) > maxDisplayNameLen:
		return fmt.Errorf("%w: display name exceeds %d characters", ErrInvalidInput, maxDisplayNameLen)
	case strings.TrimSpace(sub.EventKind) == "":
		return fmt.Errorf("%w: event kind must not be empty", ErrInvalidInput)
	case len(sub.EventKind) > maxEventKindLen:
		return fmt.Errorf("%w: event kind exceeds %d characters", ErrInvalidInput, maxEventKindLen)
	case sub.Points < 1:
		return fmt.Errorf("%w: points must be at least 1", ErrInvalidInput)
	case len(sub.Description) > maxDescriptionLen:
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidInput, maxDescriptionLen)
	}
	return nil
}

// translateStore maps storage-layer failures onto the service taxonomy.
func (s *Service) translateStore(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		// Caller cancellation interrupts the storage call the same way a
		// deadline does; both are retry-safe under idempotency.
		return fmt.Errorf("%w: %v", ErrStorageTimeout, err)
	default:
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
}

func (s *Service) observeStoreOp(op string, start time.Time, err error) {
	metrics.ObserveStoreOp(op, s.clock().Sub(start).Seconds())
	if err != nil {
		metrics.RecordStoreError(op, errKind(err))
	}
}

func errKind(err error) string {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return "not_found"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "unavailable"
	}
}
