// Package model contains domain models passed between layers.
package model

import "time"

// Participant is the per-scorer aggregate derived from the ledger.
// TotalScore and Discoveries always equal the sum of points and the count
// of the participant's ledger entries.
type Participant struct {
	ID           string    `json:"participant_id"`
	DisplayName  string    `json:"display_name"`
	TotalScore   int64     `json:"total_score"`
	Discoveries  int64     `json:"discoveries"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// Discovery is an immutable ledger entry crediting a participant with
// points for a named event kind. At most one entry exists per
// (participant, event kind) pair.
type Discovery struct {
	ID            string    `json:"id"`
	ParticipantID string    `json:"participant_id"`
	EventKind     string    `json:"event_kind"`
	Points        int64     `json:"points"`
	Description   string    `json:"description,omitempty"`
	DiscoveredAt  time.Time `json:"discovered_at"`
}

// Stats is the derived rollup over the whole population. It is always a
// pure function of Participant and ledger state; cached copies must not
// lag the source by more than one ingestion.
type Stats struct {
	Participants      int          `json:"participants"`
	TotalDiscoveries  int          `json:"total_discoveries"`
	TotalPoints       int64        `json:"total_points"`
	AvgPointsPerEntry float64      `json:"avg_points_per_entry"`
	RecentDiscoveries int          `json:"recent_discoveries"`
	RecentWindowHours int          `json:"recent_window_hours"`
	TopParticipant    *Participant `json:"top_participant,omitempty"`
	GeneratedAt       time.Time    `json:"generated_at"`
}

// Outcome distinguishes the two successful ingestion results.
type Outcome string

const (
	// OutcomeCreated means a new ledger entry was appended and the
	// participant aggregate was updated in the same atomic unit.
	OutcomeCreated Outcome = "created"
	// OutcomeAlreadyRecorded means the (participant, event kind) pair was
	// already credited; no state changed.
	OutcomeAlreadyRecorded Outcome = "already_recorded"
)

// Submission is a request to credit a participant with a discovery.
type Submission struct {
	ParticipantID string
	DisplayName   string
	EventKind     string
	Points        int64
	Description   string
}

// RecordResult is the outcome of an ingestion: the participant aggregate
// after the operation and the ledger entry (new for Created, existing for
// AlreadyRecorded).
type RecordResult struct {
	Outcome     Outcome
	Participant Participant
	Discovery   Discovery
}
