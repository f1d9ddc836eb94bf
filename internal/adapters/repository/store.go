// Package repository defines the ledger/aggregate store interface and its
// in-memory and Postgres implementations.
package repository

import (
	"context"
	"time"

	"github.com/huntlab/bugboard/internal/domain/model"
)

// Totals is the raw population rollup the stats aggregator builds on.
type Totals struct {
	Participants int
	Discoveries  int
	Points       int64
}

// Store provides access to participant aggregates and the discovery ledger.
//
// Record is the only mutating path besides Reset. It must apply the ledger
// append and the aggregate update as a single all-or-nothing unit: a
// cancelled or failed call leaves no partial state.
type Store interface {
	// Record applies a submission atomically. A submission whose
	// (participant, event kind) pair already exists resolves to
	// OutcomeAlreadyRecorded with the existing entry and unchanged
	// aggregates; otherwise it appends the entry, credits the points,
	// bumps the discovery count and last-activity time, and resolves to
	// OutcomeCreated. The participant is created on first submission and
	// its display name follows the submission (last write wins).
	Record(ctx context.Context, sub model.Submission) (model.RecordResult, error)

	// Participant returns the aggregate for id, or ErrNotFound.
	Participant(ctx context.Context, id string) (model.Participant, error)

	// CountScoreAbove returns how many participants hold a total score
	// strictly greater than score.
	CountScoreAbove(ctx context.Context, score int64) (int, error)

	// ListParticipants returns participants in listing order (score desc,
	// discoveries desc, created asc), optionally filtered by a
	// case-insensitive substring match on display name. limit <= 0 means
	// no limit.
	ListParticipants(ctx context.Context, search string, limit int) ([]model.Participant, error)

	// ParticipantDiscoveries returns a participant's ledger entries
	// newest-first, or ErrNotFound for an unknown id.
	ParticipantDiscoveries(ctx context.Context, id string) ([]model.Discovery, error)

	// DiscoveriesSince returns all ledger entries with a timestamp at or
	// after since, newest-first.
	DiscoveriesSince(ctx context.Context, since time.Time) ([]model.Discovery, error)

	// CountDiscoveriesSince counts ledger entries at or after since.
	CountDiscoveriesSince(ctx context.Context, since time.Time) (int, error)

	// Totals returns the population rollup.
	Totals(ctx context.Context) (Totals, error)

	// TopParticipant returns the participant with the highest total score,
	// ties broken by earliest creation time. ErrNotFound when the
	// population is empty.
	TopParticipant(ctx context.Context) (model.Participant, error)

	// Reset purges all ledger entries and participants. The only deletion
	// path; used for test-data resets.
	Reset(ctx context.Context) error
}

// StatsPersister is implemented by stores that keep a singleton stats row
// as a write-through cache. The row is never a source of truth.
type StatsPersister interface {
	SaveStats(ctx context.Context, stats model.Stats) error
}
