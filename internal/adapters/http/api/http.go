// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/mindstats/internal/app"
	"github.com/okian/mindstats/internal/domain/snapshot"
	"github.com/okian/mindstats/pkg/logger"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	// Generate runs the snapshot pipeline once.
	Generate(ctx context.Context, req service.Request) (service.Result, error)

	// Read operations expose stored snapshots.
	Latest(ctx context.Context) (*snapshot.Snapshot, error)
	Get(ctx context.Context, id string) (*snapshot.Snapshot, error)
	Versions(ctx context.Context) ([]snapshot.VersionInfo, error)
}

// Server wires HTTP routes for the analytics API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	generateHandler  *GenerateHandler
	analyticsHandler *AnalyticsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		generateHandler:  NewGenerateHandler(deps),
		analyticsHandler: NewAnalyticsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", MetricsMiddleware(s.healthHandler.HandleRoot, "root"))
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /generate-analytics", MetricsMiddleware(s.generateHandler.HandleGenerate, "generate"))
	mux.HandleFunc("GET /analytics/latest", MetricsMiddleware(s.analyticsHandler.HandleLatest, "latest"))
	mux.HandleFunc("GET /analytics/versions", MetricsMiddleware(s.analyticsHandler.HandleVersions, "versions"))
	mux.HandleFunc("GET /analytics/{id}", MetricsMiddleware(s.analyticsHandler.HandleGet, "snapshot"))
}

// analyticsResponse is the envelope of trigger and retrieval endpoints.
type analyticsResponse struct {
	Success         bool               `json:"success"`
	Message         string             `json:"message"`
	SnapshotID      string             `json:"snapshot_id,omitempty"`
	SnapshotVersion string             `json:"snapshot_version,omitempty"`
	Duplicate       *bool              `json:"duplicate,omitempty"`
	Data            *snapshot.Snapshot `json:"data,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
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

// writeServiceError maps service error kinds to status codes.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrInvalidPeriod), errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	default:
		logger.Get().Error(ctx, "request failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}
