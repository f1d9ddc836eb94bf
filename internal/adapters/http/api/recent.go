// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/huntlab/bugboard/internal/domain/model"
)

// RecentDependencies defines the interface for windowed ledger queries.
type RecentDependencies interface {
	RecentDiscoveries(ctx context.Context, hours int) ([]model.Discovery, int, error)
}

// RecentHandler handles trailing-window discovery requests.
type RecentHandler struct {
	deps RecentDependencies
}

// NewRecentHandler creates a new recent-discoveries handler.
func NewRecentHandler(deps RecentDependencies) *RecentHandler {
	return &RecentHandler{deps: deps}
}

type recentResponse struct {
	WindowHours int               `json:"window_hours"`
	Count       int               `json:"count"`
	Discoveries []model.Discovery `json:"discoveries"`
}

// HandleGetRecent handles GET /recent?hours=N requests. Omitting hours
// selects the configured default window.
func (h *RecentHandler) HandleGetRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	hours := 0
	if hoursStr := r.URL.Query().Get("hours"); hoursStr != "" {
		n, err := strconv.Atoi(hoursStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid_input", ErrBadWindow)
			return
		}
		hours = n
	}

	ds, resolved, err := h.deps.RecentDiscoveries(r.Context(), hours)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, recentResponse{
		WindowHours: resolved,
		Count:       len(ds),
		Discoveries: ds,
	})
}
