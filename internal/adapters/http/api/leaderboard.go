// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/huntlab/bugboard/internal/domain/model"
)

// LeaderboardDependencies defines the interface for leaderboard operations.
type LeaderboardDependencies interface {
	Leaderboard(ctx context.Context, search string, limit int) ([]model.Participant, []int, error)
}

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps     LeaderboardDependencies
	maxLimit int
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies, maxLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// leaderboardRow is one listing entry with its competition rank.
type leaderboardRow struct {
	Rank        int    `json:"rank"`
	ID          string `json:"participant_id"`
	DisplayName string `json:"display_name"`
	TotalScore  int64  `json:"total_score"`
	Discoveries int64  `json:"discoveries"`
}

type leaderboardResponse struct {
	Count   int              `json:"count"`
	Entries []leaderboardRow `json:"entries"`
}

// HandleGetLeaderboard handles GET /leaderboard?search=&limit=N requests.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	limit := h.maxLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid_input", ErrBadLimit)
			return
		}
		if n < limit {
			limit = n
		}
	}
	search := r.URL.Query().Get("search")

	ps, ranks, err := h.deps.Leaderboard(r.Context(), search, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	rows := make([]leaderboardRow, len(ps))
	for i, p := range ps {
		rows[i] = leaderboardRow{
			Rank:        ranks[i],
			ID:          p.ID,
			DisplayName: p.DisplayName,
			TotalScore:  p.TotalScore,
			Discoveries: p.Discoveries,
		}
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{Count: len(rows), Entries: rows})
}
