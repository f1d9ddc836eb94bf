// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/huntlab/bugboard/internal/domain/model"
)

const maxBodyBytes = 1 << 20

// DiscoveryDependencies defines the interface for ingestion dependencies.
type DiscoveryDependencies interface {
	RecordDiscovery(ctx context.Context, sub model.Submission) (model.RecordResult, error)
}

// DiscoveriesHandler handles discovery submissions.
type DiscoveriesHandler struct {
	deps DiscoveryDependencies
}

// NewDiscoveriesHandler creates a new discoveries handler.
func NewDiscoveriesHandler(deps DiscoveryDependencies) *DiscoveriesHandler {
	return &DiscoveriesHandler{deps: deps}
}

// discoveryRequest mirrors the request schema for POST /discoveries.
type discoveryRequest struct {
	ParticipantID string `json:"participant_id" validate:"required,max=100"`
	DisplayName   string `json:"display_name"   validate:"required,max=100"`
	EventKind     string `json:"event_kind"     validate:"required,max=200"`
	Points        int64  `json:"points"         validate:"required,min=1"`
	Description   string `json:"description"    validate:"omitempty,max=1000"`
}

type discoveryResponse struct {
	Status      string            `json:"status"`
	Participant model.Participant `json:"participant"`
	Discovery   model.Discovery   `json:"discovery"`
}

// HandlePostDiscovery handles POST /discoveries requests. A fresh
// (participant, event kind) pair answers 201; a repeat answers 200 with the
// originally recorded entry.
func (h *DiscoveriesHandler) HandlePostDiscovery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req discoveryRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", err)
		return
	}
	if err := getValidator().Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", validationError(err))
		return
	}

	res, err := h.deps.RecordDiscovery(r.Context(), model.Submission{
		ParticipantID: req.ParticipantID,
		DisplayName:   req.DisplayName,
		EventKind:     req.EventKind,
		Points:        req.Points,
		Description:   req.Description,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	status := http.StatusCreated
	if res.Outcome == model.OutcomeAlreadyRecorded {
		status = http.StatusOK
	}
	writeJSON(w, status, discoveryResponse{
		Status:      string(res.Outcome),
		Participant: res.Participant,
		Discovery:   res.Discovery,
	})
}
