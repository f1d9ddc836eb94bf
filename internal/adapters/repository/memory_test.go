package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/huntlab/bugboard/internal/domain/model"
)

func submission(participant, kind string, points int64) model.Submission {
	return model.Submission{
		ParticipantID: participant,
		DisplayName:   participant,
		EventKind:     kind,
		Points:        points,
	}
}

func TestMemoryStore_RecordBasics(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	res, err := store.Record(ctx, submission("p1", "xss-header", 50))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != model.OutcomeCreated {
		t.Fatalf("expected created, got %s", res.Outcome)
	}
	if res.Participant.TotalScore != 50 || res.Participant.Discoveries != 1 {
		t.Errorf("aggregate = (%d, %d), want (50, 1)",
			res.Participant.TotalScore, res.Participant.Discoveries)
	}
	if res.Discovery.ID == "" {
		t.Error("expected discovery id to be assigned")
	}

	p, err := store.Participant(ctx, "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.TotalScore != 50 {
		t.Errorf("expected score 50, got %d", p.TotalScore)
	}
	if p.CreatedAt.IsZero() || p.LastActivity.IsZero() {
		t.Error("expected creation and activity timestamps to be set")
	}
}

func TestMemoryStore_Idempotency(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first, err := store.Record(ctx, submission("p1", "sqli-login", 80))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := store.Record(ctx, submission("p1", "sqli-login", 80))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Outcome != model.OutcomeAlreadyRecorded {
		t.Fatalf("expected already_recorded, got %s", second.Outcome)
	}
	if second.Discovery.ID != first.Discovery.ID {
		t.Error("duplicate did not return the existing entry")
	}
	if second.Participant.TotalScore != 80 || second.Participant.Discoveries != 1 {
		t.Errorf("duplicate mutated aggregate: (%d, %d)",
			second.Participant.TotalScore, second.Participant.Discoveries)
	}

	totals, err := store.Totals(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if totals.Discoveries != 1 || totals.Points != 80 {
		t.Errorf("totals = %+v, want 1 entry / 80 points", totals)
	}
}

func TestMemoryStore_DisplayNameLastWriteWins(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.Record(ctx, model.Submission{
		ParticipantID: "p1", DisplayName: "Ada", EventKind: "a", Points: 1,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := store.Record(ctx, model.Submission{
		ParticipantID: "p1", DisplayName: "Ada L.", EventKind: "b", Points: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Participant.DisplayName != "Ada L." {
		t.Errorf("display name = %q, want last write", res.Participant.DisplayName)
	}
}

func TestMemoryStore_ScoreInvariant(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var want int64
	for i := 0; i < 20; i++ {
		points := int64(i%7 + 1)
		res, err := store.Record(ctx, submission("p1", fmt.Sprintf("bug-%d", i), points))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Outcome == model.OutcomeCreated {
			want += points
		}
	}
	// Replay a few duplicates.
	for i := 0; i < 5; i++ {
		if _, err := store.Record(ctx, submission("p1", fmt.Sprintf("bug-%d", i), 999)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	p, err := store.Participant(ctx, "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entries, err := store.ParticipantDiscoveries(ctx, "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var sum int64
	for _, d := range entries {
		sum += d.Points
	}
	if p.TotalScore != want || sum != want {
		t.Errorf("score invariant broken: aggregate=%d ledger=%d want=%d", p.TotalScore, sum, want)
	}
	if p.Discoveries != int64(len(entries)) {
		t.Errorf("discovery count %d != ledger entries %d", p.Discoveries, len(entries))
	}
}

func TestMemoryStore_ConcurrentSameParticipant(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	const n = 64
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			if _, err := store.Record(ctx, submission("p1", fmt.Sprintf("kind-%d", i), 10)); err != nil {
				t.Errorf("record failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	p, err := store.Participant(ctx, "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.TotalScore != n*10 {
		t.Errorf("lost updates: score = %d, want %d", p.TotalScore, n*10)
	}
	if p.Discoveries != n {
		t.Errorf("discovery count = %d, want %d", p.Discoveries, n)
	}
}

func TestMemoryStore_ListingAndSearch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	seed := []struct {
		id     string
		name   string
		points int64
	}{
		{"p1", "Grace", 50},
		{"p2", "Hopper", 80},
		{"p3", "Graham", 20},
	}
	for _, s := range seed {
		if _, err := store.Record(ctx, model.Submission{
			ParticipantID: s.id, DisplayName: s.name, EventKind: "first", Points: s.points,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	all, err := store.ListParticipants(ctx, "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 || all[0].ID != "p2" || all[1].ID != "p1" || all[2].ID != "p3" {
		t.Errorf("unexpected listing order: %+v", all)
	}

	limited, err := store.ListParticipants(ctx, "", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limit not applied, got %d rows", len(limited))
	}

	matched, err := store.ListParticipants(ctx, "gra", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matched) != 2 {
		t.Errorf("search matched %d rows, want 2 (Grace, Graham)", len(matched))
	}
}

func TestMemoryStore_TimeWindows(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	store := NewMemoryStore(WithClock(func() time.Time { return clock }))

	// Three entries spread over 48 hours.
	for i, kind := range []string{"old", "yesterday", "fresh"} {
		clock = now.Add(time.Duration(i) * 24 * time.Hour)
		if _, err := store.Record(ctx, submission("p1", kind, 5)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	since := now.Add(12 * time.Hour)
	recent, err := store.DiscoveriesSince(ctx, since)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 recent entries, got %d", len(recent))
	}
	if recent[0].EventKind != "fresh" || recent[1].EventKind != "yesterday" {
		t.Errorf("recent entries not newest-first: %+v", recent)
	}

	n, err := store.CountDiscoveriesSince(ctx, since)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("recent count = %d, want 2", n)
	}
}

func TestMemoryStore_TopParticipantTieBreak(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	store := NewMemoryStore(WithClock(func() time.Time { return clock }))

	if _, err := store.TopParticipant(ctx); err != ErrNotFound {
		t.Errorf("empty store top participant error = %v, want ErrNotFound", err)
	}

	// first reaches 50 before second does; both end tied.
	if _, err := store.Record(ctx, submission("first", "a", 50)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	clock = now.Add(time.Minute)
	if _, err := store.Record(ctx, submission("second", "a", 50)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	top, err := store.TopParticipant(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if top.ID != "first" {
		t.Errorf("champion = %s, want first (earliest creation wins ties)", top.ID)
	}
}

func TestMemoryStore_Reset(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.Record(ctx, submission("p1", "a", 10)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Reset(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	totals, err := store.Totals(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if totals.Participants != 0 || totals.Discoveries != 0 || totals.Points != 0 {
		t.Errorf("reset left state behind: %+v", totals)
	}
	if _, err := store.Participant(ctx, "p1"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after reset, got %v", err)
	}
}

func TestMemoryStore_CountScoreAbove(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for i, points := range []int64{100, 100, 80, 1} {
		if _, err := store.Record(ctx, submission(fmt.Sprintf("p%d", i), "a", points)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	cases := []struct {
		score int64
		want  int
	}{
		{100, 0},
		{80, 2},
		{1, 3},
		{0, 4},
	}
	for _, tc := range cases {
		n, err := store.CountScoreAbove(ctx, tc.score)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != tc.want {
			t.Errorf("CountScoreAbove(%d) = %d, want %d", tc.score, n, tc.want)
		}
	}
}
