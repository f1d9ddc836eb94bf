// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/huntlab/bugboard/internal/app"
	"github.com/huntlab/bugboard/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	// RecordDiscovery ingests a submission idempotently.
	RecordDiscovery(ctx context.Context, sub model.Submission) (model.RecordResult, error)

	// Read operations expose leaderboard data.
	Leaderboard(ctx context.Context, search string, limit int) ([]model.Participant, []int, error)
	ParticipantDetail(ctx context.Context, id string) (service.ParticipantDetail, error)
	RecentDiscoveries(ctx context.Context, hours int) ([]model.Discovery, int, error)
	Stats(ctx context.Context) (model.Stats, error)
	Health(ctx context.Context) (service.Health, error)

	// Reset purges all scoring data.
	Reset(ctx context.Context) error
}

// Server wires HTTP routes for the scoring API.
type Server struct {
	discoveriesHandler *DiscoveriesHandler
	leaderboardHandler *LeaderboardHandler
	participantHandler *ParticipantHandler
	statsHandler       *StatsHandler
	recentHandler      *RecentHandler
	healthHandler      *HealthHandler
	adminHandler       *AdminHandler
}

// Limits applied to query parameters.
type Limits struct {
	// MaxLeaderboardLimit caps the leaderboard limit parameter.
	MaxLeaderboardLimit int
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, limits Limits) *Server {
	if limits.MaxLeaderboardLimit < 1 {
		limits.MaxLeaderboardLimit = 100
	}
	return &Server{
		discoveriesHandler: NewDiscoveriesHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, limits.MaxLeaderboardLimit),
		participantHandler: NewParticipantHandler(deps),
		statsHandler:       NewStatsHandler(deps),
		recentHandler:      NewRecentHandler(deps),
		healthHandler:      NewHealthHandler(deps),
		adminHandler:       NewAdminHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/discoveries", MetricsMiddleware(s.discoveriesHandler.HandlePostDiscovery, "discoveries"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/participants/", MetricsMiddleware(s.participantHandler.HandleGetParticipant, "participant"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleGetStats, "stats"))
	mux.HandleFunc("/recent", MetricsMiddleware(s.recentHandler.HandleGetRecent, "recent"))
	mux.HandleFunc("/admin/reset", MetricsMiddleware(s.adminHandler.HandleReset, "admin_reset"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input", err)
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrStorageTimeout):
		writeError(w, http.StatusGatewayTimeout, "storage_timeout", err)
	case errors.Is(err, service.ErrStorageUnavailable):
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
