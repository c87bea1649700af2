// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/emotrack/internal/adapters/repository"
	"github.com/okian/emotrack/internal/domain/emotion"
	"github.com/okian/emotrack/internal/domain/model"
)

// defaultDailyDays is the trailing window used when ?days is absent.
const defaultDailyDays = 7

// ObservationDependencies defines the interface for observation ingest,
// aggregation and bulk deletion.
type ObservationDependencies interface {
	IngestBatch(ctx context.Context, observations []model.Observation) error
	DailyDistribution(ctx context.Context, days int) (repository.DailyDistribution, error)
	Summary(ctx context.Context) (repository.Summary, error)
	Export(ctx context.Context, format repository.Format) ([]byte, error)
	ClearAll(ctx context.Context, confirm bool) error
}

// ObservationsHandler handles observation requests.
type ObservationsHandler struct {
	deps ObservationDependencies
}

// NewObservationsHandler creates a new observations handler.
func NewObservationsHandler(deps ObservationDependencies) *ObservationsHandler {
	return &ObservationsHandler{deps: deps}
}

// observationRequest mirrors one ingested observation on the wire.
type observationRequest struct {
	Timestamp float64 `json:"timestamp"`
	Emotion   string  `json:"emotion"`
}

// batchRequest mirrors the schema for POST /observations.
type batchRequest struct {
	Observations []observationRequest `json:"observations"`
}

func (b batchRequest) toModel() ([]model.Observation, error) {
	if len(b.Observations) == 0 {
		return nil, errors.New("missing observations")
	}
	observations := make([]model.Observation, len(b.Observations))
	for i, req := range b.Observations {
		e, err := emotion.Parse(req.Emotion)
		if err != nil {
			return nil, fmt.Errorf("observation %d: %w", i, err)
		}
		if req.Timestamp <= 0 {
			return nil, fmt.Errorf("observation %d: missing timestamp", i)
		}
		observations[i] = model.Observation{Timestamp: req.Timestamp, Emotion: e}
	}
	return observations, nil
}

// HandleObservations dispatches POST (batch ingest) and DELETE (clear all)
// on /observations.
func (h *ObservationsHandler) HandleObservations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleIngest(w, r)
	case http.MethodDelete:
		h.handleClear(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *ObservationsHandler) handleIngest(w http.ResponseWriter, r *http.Request) {
	const op = "api.ingest_observations"
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	observations, err := req.toModel()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.IngestBatch(r.Context(), observations); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, ackResponse{Status: "written", Written: len(observations)})
}

func (h *ObservationsHandler) handleClear(w http.ResponseWriter, r *http.Request) {
	const op = "api.clear_observations"
	confirm, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	err := h.deps.ClearAll(r.Context(), confirm)
	switch {
	case errors.Is(err, repository.ErrConfirmationRequired):
		writeError(w, http.StatusPreconditionFailed, "confirmation_required", Wrap(op, err))
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "cleared"})
}

// HandleDaily handles GET /observations/daily?days=N requests.
func (h *ObservationsHandler) HandleDaily(w http.ResponseWriter, r *http.Request) {
	const op = "api.daily_distribution"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	days := defaultDailyDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		days = n
	}

	dist, err := h.deps.DailyDistribution(r.Context(), days)
	switch {
	case errors.Is(err, repository.ErrInvalidDays):
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, dist)
}

// HandleSummary handles GET /observations/summary requests.
func (h *ObservationsHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	const op = "api.summary"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	summary, err := h.deps.Summary(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// HandleExport handles GET /observations/export?format=json|csv requests.
func (h *ObservationsHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.export"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	format, err := repository.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	}

	data, err := h.deps.Export(r.Context(), format)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	switch format {
	case repository.FormatCSV:
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="observations.csv"`)
	default:
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
