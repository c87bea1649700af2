// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"

	service "github.com/okian/emotrack/internal/app"
)

// TrackDependencies defines the interface for session lifecycle control.
type TrackDependencies interface {
	StartTracking(ctx context.Context) (string, error)
	StopTracking(ctx context.Context) (service.SessionStats, error)
	SessionStats() (service.SessionStats, bool)
}

// TrackHandler handles tracking session requests.
type TrackHandler struct {
	deps TrackDependencies
}

// NewTrackHandler creates a new track handler.
func NewTrackHandler(deps TrackDependencies) *TrackHandler {
	return &TrackHandler{deps: deps}
}

// HandleStart handles POST /track/start requests.
func (h *TrackHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	const op = "api.track_start"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	id, err := h.deps.StartTracking(r.Context())
	switch {
	case errors.Is(err, service.ErrSessionActive):
		writeError(w, http.StatusConflict, "session_active", Wrap(op, err))
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": id})
}

// HandleStop handles POST /track/stop requests. The response carries the
// finished session's counters; a failed final flush surfaces as 500 so the
// caller knows observations are still pending.
func (h *TrackHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	const op = "api.track_stop"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	stats, err := h.deps.StopTracking(r.Context())
	switch {
	case errors.Is(err, service.ErrNoActiveSession):
		writeError(w, http.StatusNotFound, "no_active_session", Wrap(op, err))
		return
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"code":    "flush_failed",
			"message": err.Error(),
			"stats":   stats,
		})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HandleStatus handles GET /track/status requests.
func (h *TrackHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	stats, active := h.deps.SessionStats()
	if !active {
		writeJSON(w, http.StatusOK, map[string]any{"active": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"active": true, "stats": stats})
}
