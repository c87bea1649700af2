// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/emotrack/internal/adapters/detect"
	"github.com/okian/emotrack/internal/adapters/repository"
	service "github.com/okian/emotrack/internal/app"
	"github.com/okian/emotrack/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// DetectOnce runs one recognition call without persisting anything.
	DetectOnce(ctx context.Context, image []byte) (detect.Result, error)

	// IngestBatch writes externally produced observations to the store.
	IngestBatch(ctx context.Context, observations []model.Observation) error

	// Read operations expose aggregated observation data.
	DailyDistribution(ctx context.Context, days int) (repository.DailyDistribution, error)
	Summary(ctx context.Context) (repository.Summary, error)
	Export(ctx context.Context, format repository.Format) ([]byte, error)

	// ClearAll deletes every observation behind a confirmation gate.
	ClearAll(ctx context.Context, confirm bool) error

	// Ping verifies the record store is reachable.
	Ping(ctx context.Context) error

	// Tracking session lifecycle.
	StartTracking(ctx context.Context) (string, error)
	StopTracking(ctx context.Context) (service.SessionStats, error)
	SessionStats() (service.SessionStats, bool)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler       *HealthHandler
	statsHandler        *StatsHandler
	detectHandler       *DetectHandler
	observationsHandler *ObservationsHandler
	trackHandler        *TrackHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:       NewHealthHandler(deps),
		statsHandler:        NewStatsHandler(statsProvider),
		detectHandler:       NewDetectHandler(deps),
		observationsHandler: NewObservationsHandler(deps),
		trackHandler:        NewTrackHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/detect", MetricsMiddleware(s.detectHandler.HandleDetect, "detect"))
	mux.HandleFunc("/observations/daily", MetricsMiddleware(s.observationsHandler.HandleDaily, "observations_daily"))
	mux.HandleFunc("/observations/summary", MetricsMiddleware(s.observationsHandler.HandleSummary, "observations_summary"))
	mux.HandleFunc("/observations/export", MetricsMiddleware(s.observationsHandler.HandleExport, "observations_export"))
	mux.HandleFunc("/observations", MetricsMiddleware(s.observationsHandler.HandleObservations, "observations"))
	mux.HandleFunc("/track/start", MetricsMiddleware(s.trackHandler.HandleStart, "track_start"))
	mux.HandleFunc("/track/stop", MetricsMiddleware(s.trackHandler.HandleStop, "track_stop"))
	mux.HandleFunc("/track/status", MetricsMiddleware(s.trackHandler.HandleStatus, "track_status"))
}

type ackResponse struct {
	Status  string `json:"status"`
	Written int    `json:"written,omitempty"`
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
