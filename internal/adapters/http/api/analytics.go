package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/mindstats/internal/domain/snapshot"
)

// AnalyticsHandler serves stored snapshots.
type AnalyticsHandler struct {
	deps Dependencies
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(deps Dependencies) *AnalyticsHandler {
	return &AnalyticsHandler{deps: deps}
}

// HandleLatest handles GET /analytics/latest.
func (h *AnalyticsHandler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	snap, err := h.deps.Latest(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, analyticsResponse{
		Success:         true,
		Message:         "Latest analytics snapshot retrieved.",
		SnapshotID:      snap.ID,
		SnapshotVersion: snap.Version,
		Data:            snap,
	})
}

// HandleVersions handles GET /analytics/versions and lists snapshots newest first.
func (h *AnalyticsHandler) HandleVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := h.deps.Versions(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	if versions == nil {
		versions = []snapshot.VersionInfo{}
	}
	writeJSON(w, http.StatusOK, versions)
}

// HandleGet handles GET /analytics/{id}.
func (h *AnalyticsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: missing id", ErrBadRequest))
		return
	}
	snap, err := h.deps.Get(r.Context(), id)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, analyticsResponse{
		Success:         true,
		Message:         fmt.Sprintf("Analytics snapshot '%s' retrieved.", snap.Version),
		SnapshotID:      snap.ID,
		SnapshotVersion: snap.Version,
		Data:            snap,
	})
}
