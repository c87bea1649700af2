package api

import (
	"net/http"

	service "github.com/okian/emotrack/internal/app"
)

// StatsProvider exposes the service-level monitoring snapshot.
type StatsProvider interface {
	GetStats() service.Stats
}

// StatsHandler serves the pipeline snapshot: configuration, stored-record
// count and the active session's counters when one is running.
type StatsHandler struct {
	provider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.provider.GetStats())
}
