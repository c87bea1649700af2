// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/okian/emotrack/internal/adapters/detect"
)

// maxImageBytes caps accepted image payloads.
const maxImageBytes = 10 << 20

// DetectDependencies defines the interface for one-shot detection.
type DetectDependencies interface {
	DetectOnce(ctx context.Context, image []byte) (detect.Result, error)
}

// DetectHandler handles one-shot detection requests.
type DetectHandler struct {
	deps DetectDependencies
}

// NewDetectHandler creates a new detect handler.
func NewDetectHandler(deps DetectDependencies) *DetectHandler {
	return &DetectHandler{deps: deps}
}

// detectResponse mirrors the detection result wire shape.
type detectResponse struct {
	Emotion    string  `json:"emotion,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	NoFace     bool    `json:"no_face"`
}

// HandleDetect handles POST /detect requests. The image arrives either as a
// multipart "file" part or as the raw request body.
func (h *DetectHandler) HandleDetect(w http.ResponseWriter, r *http.Request) {
	const op = "api.detect"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	image, err := readImage(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	result, err := h.deps.DetectOnce(r.Context(), image)
	switch {
	case errors.Is(err, detect.ErrEmptyImage):
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	case errors.Is(err, detect.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, "detection_timeout", Wrap(op, err))
		return
	case err != nil:
		writeError(w, http.StatusBadGateway, "detection_failed", Wrap(op, err))
		return
	}

	resp := detectResponse{NoFace: result.NoFace}
	if !result.NoFace {
		resp.Emotion = result.Emotion.String()
		resp.Confidence = result.Confidence
	}
	writeJSON(w, http.StatusOK, resp)
}

// readImage extracts the image payload from a multipart form or raw body.
func readImage(r *http.Request) ([]byte, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, err
		}
		defer func() { _ = file.Close() }()
		return io.ReadAll(io.LimitReader(file, maxImageBytes))
	}
	return io.ReadAll(io.LimitReader(r.Body, maxImageBytes))
}
