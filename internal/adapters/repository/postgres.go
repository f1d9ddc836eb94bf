package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/huntlab/bugboard/internal/domain/model"
)

const participantColumns = "id, display_name, total_score, discoveries, created_at, last_activity"

// PostgresStore implements Store on a pgx connection pool. The atomic
// ingestion unit is a single transaction; the UNIQUE constraint on
// (participant_id, event_kind) is the schema-level idempotency backstop.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects a pool to dsn and verifies the connection.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	cfg.ConnConfig.ConnectTimeout = 10 * time.Second
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresStoreFromPool wraps an existing pool. Used by tests.
func NewPostgresStoreFromPool(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Ping reports connectivity for health probes.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate creates the two primary tables and the singleton stats row table.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS participants (
			id            TEXT PRIMARY KEY,
			display_name  TEXT NOT NULL,
			total_score   BIGINT NOT NULL DEFAULT 0,
			discoveries   BIGINT NOT NULL DEFAULT 0,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_activity TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS discoveries (
			id             UUID PRIMARY KEY,
			participant_id TEXT NOT NULL REFERENCES participants(id) ON DELETE CASCADE,
			event_kind     TEXT NOT NULL,
			points         BIGINT NOT NULL,
			description    TEXT NOT NULL DEFAULT '',
			discovered_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (participant_id, event_kind)
		)`,
		`CREATE TABLE IF NOT EXISTS stats_cache (
			id                SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
			participants      BIGINT NOT NULL,
			total_discoveries BIGINT NOT NULL,
			total_points      BIGINT NOT NULL,
			generated_at      TIMESTAMPTZ NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// Record applies a submission inside one transaction: participant upsert,
// ledger insert guarded by the unique constraint, aggregate update. A
// constraint hit resolves to AlreadyRecorded with the existing entry.
func (s *PostgresStore) Record(ctx context.Context, sub model.Submission) (model.RecordResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return model.RecordResult{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const upsert = `
		INSERT INTO participants (id, display_name)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET display_name = EXCLUDED.display_name
		RETURNING ` + participantColumns
	var p model.Participant
	if err := tx.QueryRow(ctx, upsert, sub.ParticipantID, sub.DisplayName).Scan(
		&p.ID, &p.DisplayName, &p.TotalScore, &p.Discoveries, &p.CreatedAt, &p.LastActivity,
	); err != nil {
		return model.RecordResult{}, fmt.Errorf("upsert participant: %w", err)
	}

	const insert = `
		INSERT INTO discoveries (id, participant_id, event_kind, points, description)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (participant_id, event_kind) DO NOTHING
		RETURNING id, discovered_at
	`
	entry := model.Discovery{
		ParticipantID: sub.ParticipantID,
		EventKind:     sub.EventKind,
		Points:        sub.Points,
		Description:   sub.Description,
	}
	err = tx.QueryRow(ctx, insert,
		uuid.NewString(), sub.ParticipantID, sub.EventKind, sub.Points, sub.Description,
	).Scan(&entry.ID, &entry.DiscoveredAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Constraint hit: already credited. Return the existing entry and
		// leave the aggregate untouched.
		const existing = `
			SELECT id, points, description, discovered_at
			FROM discoveries
			WHERE participant_id = $1 AND event_kind = $2
		`
		if err := tx.QueryRow(ctx, existing, sub.ParticipantID, sub.EventKind).Scan(
			&entry.ID, &entry.Points, &entry.Description, &entry.DiscoveredAt,
		); err != nil {
			return model.RecordResult{}, fmt.Errorf("load existing discovery: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return model.RecordResult{}, fmt.Errorf("commit transaction: %w", err)
		}
		return model.RecordResult{
			Outcome:     model.OutcomeAlreadyRecorded,
			Participant: p,
			Discovery:   entry,
		}, nil
	}
	if err != nil {
		return model.RecordResult{}, fmt.Errorf("insert discovery: %w", err)
	}

	const credit = `
		UPDATE participants
		SET total_score = total_score + $2,
		    discoveries = discoveries + 1,
		    last_activity = NOW()
		WHERE id = $1
		RETURNING ` + participantColumns
	if err := tx.QueryRow(ctx, credit, sub.ParticipantID, sub.Points).Scan(
		&p.ID, &p.DisplayName, &p.TotalScore, &p.Discoveries, &p.CreatedAt, &p.LastActivity,
	); err != nil {
		return model.RecordResult{}, fmt.Errorf("credit participant: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return model.RecordResult{}, fmt.Errorf("commit transaction: %w", err)
	}
	return model.RecordResult{
		Outcome:     model.OutcomeCreated,
		Participant: p,
		Discovery:   entry,
	}, nil
}

// Participant returns the aggregate for id.
func (s *PostgresStore) Participant(ctx context.Context, id string) (model.Participant, error) {
	const query = `SELECT ` + participantColumns + ` FROM participants WHERE id = $1`

	var p model.Participant
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.DisplayName, &p.TotalScore, &p.Discoveries, &p.CreatedAt, &p.LastActivity,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Participant{}, ErrNotFound
	}
	if err != nil {
		return model.Participant{}, fmt.Errorf("get participant: %w", err)
	}
	return p, nil
}

// CountScoreAbove counts participants with a strictly greater score.
func (s *PostgresStore) CountScoreAbove(ctx context.Context, score int64) (int, error) {
	const query = `SELECT COUNT(*) FROM participants WHERE total_score > $1`

	var n int
	if err := s.pool.QueryRow(ctx, query, score).Scan(&n); err != nil {
		return 0, fmt.Errorf("count score above: %w", err)
	}
	return n, nil
}

// ListParticipants returns participants in listing order.
func (s *PostgresStore) ListParticipants(ctx context.Context, search string, limit int) ([]model.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants`
	args := []any{}
	if search != "" {
		query += ` WHERE display_name ILIKE '%' || $1 || '%'`
		args = append(args, search)
	}
	query += ` ORDER BY total_score DESC, discoveries DESC, created_at ASC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	out := make([]model.Participant, 0)
	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(
			&p.ID, &p.DisplayName, &p.TotalScore, &p.Discoveries, &p.CreatedAt, &p.LastActivity,
		); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) queryDiscoveries(ctx context.Context, query string, args ...any) ([]model.Discovery, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query discoveries: %w", err)
	}
	defer rows.Close()

	out := make([]model.Discovery, 0)
	for rows.Next() {
		var d model.Discovery
		if err := rows.Scan(
			&d.ID, &d.ParticipantID, &d.EventKind, &d.Points, &d.Description, &d.DiscoveredAt,
		); err != nil {
			return nil, fmt.Errorf("scan discovery: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate discoveries: %w", err)
	}
	return out, nil
}

// ParticipantDiscoveries returns a participant's entries newest-first.
func (s *PostgresStore) ParticipantDiscoveries(ctx context.Context, id string) ([]model.Discovery, error) {
	if _, err := s.Participant(ctx, id); err != nil {
		return nil, err
	}
	const query = `
		SELECT id, participant_id, event_kind, points, description, discovered_at
		FROM discoveries
		WHERE participant_id = $1
		ORDER BY discovered_at DESC
	`
	return s.queryDiscoveries(ctx, query, id)
}

// DiscoveriesSince returns ledger entries at or after since, newest-first.
func (s *PostgresStore) DiscoveriesSince(ctx context.Context, since time.Time) ([]model.Discovery, error) {
	const query = `
		SELECT id, participant_id, event_kind, points, description, discovered_at
		FROM discoveries
		WHERE discovered_at >= $1
		ORDER BY discovered_at DESC
	`
	return s.queryDiscoveries(ctx, query, since)
}

// CountDiscoveriesSince counts ledger entries at or after since.
func (s *PostgresStore) CountDiscoveriesSince(ctx context.Context, since time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM discoveries WHERE discovered_at >= $1`

	var n int
	if err := s.pool.QueryRow(ctx, query, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("count recent discoveries: %w", err)
	}
	return n, nil
}

// Totals returns the population rollup.
func (s *PostgresStore) Totals(ctx context.Context) (Totals, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM participants),
			(SELECT COUNT(*) FROM discoveries),
			(SELECT COALESCE(SUM(points), 0) FROM discoveries)
	`
	var t Totals
	if err := s.pool.QueryRow(ctx, query).Scan(&t.Participants, &t.Discoveries, &t.Points); err != nil {
		return Totals{}, fmt.Errorf("load totals: %w", err)
	}
	return t, nil
}

// TopParticipant returns the champion: highest score, earliest creation
// time on ties.
func (s *PostgresStore) TopParticipant(ctx context.Context) (model.Participant, error) {
	const query = `
		SELECT ` + participantColumns + `
		FROM participants
		ORDER BY total_score DESC, created_at ASC
		LIMIT 1
	`
	var p model.Participant
	err := s.pool.QueryRow(ctx, query).Scan(
		&p.ID, &p.DisplayName, &p.TotalScore, &p.Discoveries, &p.CreatedAt, &p.LastActivity,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Participant{}, ErrNotFound
	}
	if err != nil {
		return model.Participant{}, fmt.Errorf("load top participant: %w", err)
	}
	return p, nil
}

// Reset purges both primary tables and the stats row.
func (s *PostgresStore) Reset(ctx context.Context) error {
	const query = `TRUNCATE discoveries, participants, stats_cache`
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}
	return nil
}

// SaveStats upserts the singleton stats row. Write-through cache only.
func (s *PostgresStore) SaveStats(ctx context.Context, stats model.Stats) error {
	const query = `
		INSERT INTO stats_cache (id, participants, total_discoveries, total_points, generated_at)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			participants = EXCLUDED.participants,
			total_discoveries = EXCLUDED.total_discoveries,
			total_points = EXCLUDED.total_points,
			generated_at = EXCLUDED.generated_at
	`
	if _, err := s.pool.Exec(ctx, query,
		stats.Participants, stats.TotalDiscoveries, stats.TotalPoints, stats.GeneratedAt,
	); err != nil {
		return fmt.Errorf("save stats row: %w", err)
	}
	return nil
}
