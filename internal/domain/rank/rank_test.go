package rank_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/huntlab/bugboard/internal/domain/model"
	"github.com/huntlab/bugboard/internal/domain/rank"
	. "github.com/smartystreets/goconvey/convey"
)

// sliceSource implements rank.Source over a fixed participant slice.
type sliceSource struct {
	participants []model.Participant
}

func (s *sliceSource) Participant(_ context.Context, id string) (model.Participant, error) {
	for _, p := range s.participants {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Participant{}, errors.New("participant not found")
}

func (s *sliceSource) CountScoreAbove(_ context.Context, score int64) (int, error) {
	n := 0
	for _, p := range s.participants {
		if p.TotalScore > score {
			n++
		}
	}
	return n, nil
}

func participant(id string, score, discoveries int64, created time.Time) model.Participant {
	return model.Participant{
		ID:          id,
		DisplayName: id,
		TotalScore:  score,
		Discoveries: discoveries,
		CreatedAt:   created,
	}
}

func TestScanCalculator(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	Convey("Given a population with ties", t, func() {
		src := &sliceSource{participants: []model.Participant{
			participant("a", 100, 2, base),
			participant("b", 100, 1, base.Add(time.Hour)),
			participant("c", 100, 1, base.Add(2*time.Hour)),
			participant("d", 80, 3, base),
			participant("e", 0, 0, base),
		}}
		calc := rank.NewScanCalculator(src)
		ctx := context.Background()

		Convey("All tied top scores share rank 1", func() {
			for _, id := range []string{"a", "b", "c"} {
				r, err := calc.RankOf(ctx, id)
				So(err, ShouldBeNil)
				So(r, ShouldEqual, 1)
			}
		})

		Convey("The next distinct score skips the tied count", func() {
			r, err := calc.RankOf(ctx, "d")
			So(err, ShouldBeNil)
			So(r, ShouldEqual, 4)
		})

		Convey("A zero-score participant still has a well-defined rank", func() {
			r, err := calc.RankOf(ctx, "e")
			So(err, ShouldBeNil)
			So(r, ShouldEqual, 5)
		})

		Convey("An unknown participant yields an error", func() {
			_, err := calc.RankOf(ctx, "nope")
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given a single participant", t, func() {
		src := &sliceSource{participants: []model.Participant{
			participant("solo", 0, 0, base),
		}}
		calc := rank.NewScanCalculator(src)

		Convey("It is rank 1 even with zero score", func() {
			r, err := calc.RankOf(context.Background(), "solo")
			So(err, ShouldBeNil)
			So(r, ShouldEqual, 1)
		})
	})
}

func TestListingOrder(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	Convey("Given participants with colliding scores and counts", t, func() {
		ps := []model.Participant{
			participant("late-low", 50, 1, base.Add(3*time.Hour)),
			participant("top", 90, 1, base),
			participant("early-low", 50, 1, base),
			participant("busy-low", 50, 4, base.Add(2*time.Hour)),
		}
		rank.Sort(ps)

		Convey("Order is score desc, discoveries desc, created asc", func() {
			ids := []string{ps[0].ID, ps[1].ID, ps[2].ID, ps[3].ID}
			So(ids, ShouldResemble, []string{"top", "busy-low", "early-low", "late-low"})
		})

		Convey("Dense ranks share values on score ties and skip after", func() {
			So(rank.DenseRanks(ps), ShouldResemble, []int{1, 2, 2, 2})
		})
	})

	Convey("DenseRanks on an empty listing", t, func() {
		So(rank.DenseRanks(nil), ShouldResemble, []int{})
	})
}
