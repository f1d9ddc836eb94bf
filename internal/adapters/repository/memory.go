package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/huntlab/bugboard/internal/domain/model"
	"github.com/huntlab/bugboard/internal/domain/rank"
)

// participantState holds one participant's aggregate plus its slice of the
// ledger. entries indexes by event kind for the idempotency check; order
// keeps append order for newest-first listings.
type participantState struct {
	p       model.Participant
	entries map[string]*model.Discovery
	order   []*model.Discovery
}

// MemoryStore implements Store with in-process maps. A single mutex guards
// all state; ledger appends happen in clock order, so time-window queries
// can walk the append-ordered ledger.
type MemoryStore struct {
	mu           sync.RWMutex
	participants map[string]*participantState
	ledger       []*model.Discovery
	totalPoints  int64
	clock        func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		participants: make(map[string]*participantState),
		clock:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record applies a submission under the store lock, making the ledger
// append and the aggregate update a single unit.
func (s *MemoryStore) Record(ctx context.Context, sub model.Submission) (model.RecordResult, error) {
	if err := ctx.Err(); err != nil {
		return model.RecordResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	state, ok := s.participants[sub.ParticipantID]
	if !ok {
		state = &participantState{
			p: model.Participant{
				ID:           sub.ParticipantID,
				DisplayName:  sub.DisplayName,
				CreatedAt:    now,
				LastActivity: now,
			},
			entries: make(map[string]*model.Discovery),
		}
		s.participants[sub.ParticipantID] = state
	} else if state.p.DisplayName != sub.DisplayName {
		// Last write wins, no versioning.
		state.p.DisplayName = sub.DisplayName
	}

	if existing, seen := state.entries[sub.EventKind]; seen {
		return model.RecordResult{
			Outcome:     model.OutcomeAlreadyRecorded,
			Participant: state.p,
			Discovery:   *existing,
		}, nil
	}

	entry := &model.Discovery{
		ID:            uuid.NewString(),
		ParticipantID: sub.ParticipantID,
		EventKind:     sub.EventKind,
		Points:        sub.Points,
		Description:   sub.Description,
		DiscoveredAt:  now,
	}
	state.entries[sub.EventKind] = entry
	state.order = append(state.order, entry)
	s.ledger = append(s.ledger, entry)

	state.p.TotalScore += sub.Points
	state.p.Discoveries++
	state.p.LastActivity = now
	s.totalPoints += sub.Points

	return model.RecordResult{
		Outcome:     model.OutcomeCreated,
		Participant: state.p,
		Discovery:   *entry,
	}, nil
}

// Participant returns the aggregate for id.
func (s *MemoryStore) Participant(ctx context.Context, id string) (model.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.participants[id]
	if !ok {
		return model.Participant{}, ErrNotFound
	}
	return state.p, nil
}

// CountScoreAbove counts participants with a strictly greater score.
func (s *MemoryStore) CountScoreAbove(ctx context.Context, score int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, state := range s.participants {
		if state.p.TotalScore > score {
			n++
		}
	}
	return n, nil
}

// ListParticipants returns participants in listing order.
func (s *MemoryStore) ListParticipants(ctx context.Context, search string, limit int) ([]model.Participant, error) {
	s.mu.RLock()
	needle := strings.ToLower(search)
	out := make([]model.Participant, 0, len(s.participants))
	for _, state := range s.participants {
		if needle != "" && !strings.Contains(strings.ToLower(state.p.DisplayName), needle) {
			continue
		}
		out = append(out, state.p)
	}
	s.mu.RUnlock()

	rank.Sort(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ParticipantDiscoveries returns a participant's entries newest-first.
func (s *MemoryStore) ParticipantDiscoveries(ctx context.Context, id string) ([]model.Discovery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.participants[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]model.Discovery, 0, len(state.order))
	for i := len(state.order) - 1; i >= 0; i-- {
		out = append(out, *state.order[i])
	}
	return out, nil
}

// DiscoveriesSince returns ledger entries at or after since, newest-first.
func (s *MemoryStore) DiscoveriesSince(ctx context.Context, since time.Time) ([]model.Discovery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Discovery
	for i := len(s.ledger) - 1; i >= 0; i-- {
		if s.ledger[i].DiscoveredAt.Before(since) {
			break // ledger is append-ordered by clock
		}
		out = append(out, *s.ledger[i])
	}
	return out, nil
}

// CountDiscoveriesSince counts ledger entries at or after since.
func (s *MemoryStore) CountDiscoveriesSince(ctx context.Context, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for i := len(s.ledger) - 1; i >= 0; i-- {
		if s.ledger[i].DiscoveredAt.Before(since) {
			break
		}
		n++
	}
	return n, nil
}

// Totals returns the population rollup.
func (s *MemoryStore) Totals(ctx context.Context) (Totals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Totals{
		Participants: len(s.participants),
		Discoveries:  len(s.ledger),
		Points:       s.totalPoints,
	}, nil
}

// TopParticipant returns the champion: highest score, earliest creation
// time on ties. This tie-break is deliberately distinct from listing order.
func (s *MemoryStore) TopParticipant(ctx context.Context) (model.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var top *model.Participant
	for _, state := range s.participants {
		p := state.p
		switch {
		case top == nil:
			top = &p
		case p.TotalScore > top.TotalScore:
			top = &p
		case p.TotalScore == top.TotalScore && p.CreatedAt.Before(top.CreatedAt):
			top = &p
		}
	}
	if top == nil {
		return model.Participant{}, ErrNotFound
	}
	return *top, nil
}

// Reset purges all state.
func (s *MemoryStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.participants = make(map[string]*participantState)
	s.ledger = nil
	s.totalPoints = 0
	return nil
}
