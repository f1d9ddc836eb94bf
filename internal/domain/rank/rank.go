// Package rank computes dense competition ranks over the participant set.
//
// A participant's rank is the count of other participants with a strictly
// greater total score, plus one. Tied scores share a rank and the next
// distinct score may skip integers. Ranks are recomputed from current state
// on every call and never stored.
package rank

import (
	"context"
	"sort"

	"github.com/huntlab/bugboard/internal/domain/model"
)

// Source is the read surface the calculator needs from storage.
type Source interface {
	// Participant returns the current aggregate for id.
	Participant(ctx context.Context, id string) (model.Participant, error)

	// CountScoreAbove returns how many participants have a total score
	// strictly greater than score.
	CountScoreAbove(ctx context.Context, score int64) (int, error)
}

// Calculator resolves a participant's current competition rank.
// It is an interface so the count-greater scan can later be swapped for an
// indexed implementation without touching the ingestion contract.
type Calculator interface {
	RankOf(ctx context.Context, participantID string) (int, error)
}

// ScanCalculator implements Calculator with a full count-greater scan.
// O(n) per query; fine for the populations this engine serves.
type ScanCalculator struct {
	src Source
}

// NewScanCalculator creates a Calculator backed by src.
func NewScanCalculator(src Source) *ScanCalculator {
	return &ScanCalculator{src: src}
}

// RankOf returns the dense competition rank for participantID.
func (c *ScanCalculator) RankOf(ctx context.Context, participantID string) (int, error) {
	p, err := c.src.Participant(ctx, participantID)
	if err != nil {
		return 0, err
	}
	above, err := c.src.CountScoreAbove(ctx, p.TotalScore)
	if err != nil {
		return 0, err
	}
	return above + 1, nil
}

// Less reports whether a sorts before b in listing order: total score
// descending, then discovery count descending, then earliest creation time.
// Listing order is a display concern only; it does not define the numeric
// rank value.
func Less(a, b model.Participant) bool {
	if a.TotalScore != b.TotalScore {
		return a.TotalScore > b.TotalScore
	}
	if a.Discoveries != b.Discoveries {
		return a.Discoveries > b.Discoveries
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

// Sort orders participants in listing order.
func Sort(ps []model.Participant) {
	sort.SliceStable(ps, func(i, j int) bool { return Less(ps[i], ps[j]) })
}

// DenseRanks returns the competition rank for each element of ps, which
// must already be in listing order. Tied scores share a rank; the rank
// after a tie skips the tied count.
func DenseRanks(ps []model.Participant) []int {
	ranks := make([]int, len(ps))
	for i := range ps {
		if i > 0 && ps[i].TotalScore == ps[i-1].TotalScore {
			ranks[i] = ranks[i-1]
			continue
		}
		ranks[i] = i + 1
	}
	return ranks
}
