// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strings"

	service "github.com/huntlab/bugboard/internal/app"
	"github.com/huntlab/bugboard/internal/domain/model"
)

// ParticipantDependencies defines the interface for participant lookups.
type ParticipantDependencies interface {
	ParticipantDetail(ctx context.Context, id string) (service.ParticipantDetail, error)
}

// ParticipantHandler handles per-participant detail requests.
type ParticipantHandler struct {
	deps ParticipantDependencies
}

// NewParticipantHandler creates a new participant handler.
func NewParticipantHandler(deps ParticipantDependencies) *ParticipantHandler {
	return &ParticipantHandler{deps: deps}
}

type participantResponse struct {
	Participant model.Participant `json:"participant"`
	Rank        int               `json:"rank"`
	RecentCount int               `json:"recent_discoveries_7d"`
	Discoveries []model.Discovery `json:"discoveries"`
}

// HandleGetParticipant handles GET /participants/{id} requests.
func (h *ParticipantHandler) HandleGetParticipant(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/participants/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "invalid_input", ErrBadParticipantID)
		return
	}

	detail, err := h.deps.ParticipantDetail(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, participantResponse{
		Participant: detail.Participant,
		Rank:        detail.Rank,
		RecentCount: detail.RecentCount,
		Discoveries: detail.Discoveries,
	})
}
