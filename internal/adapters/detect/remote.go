package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/okian/emotrack/internal/domain/emotion"
	"github.com/okian/emotrack/pkg/metrics"
)

const defaultRemoteTimeout = 30 * time.Second

// RemoteDetector implements Detector against a running emotrackd daemon's
// POST /detect endpoint. It is the detection path used by the split
// frontend/backend deployment shape, where the frontend machine has the
// camera and the backend holds the cloud credentials.
type RemoteDetector struct {
	baseURL string
	token   string
	client  *http.Client
}

// RemoteOption applies a configuration option to the RemoteDetector.
type RemoteOption func(*RemoteDetector)

// WithToken sets a bearer token attached to every request.
func WithToken(token string) RemoteOption {
	return func(d *RemoteDetector) {
		d.token = token
	}
}

// WithHTTPClient overrides the HTTP client, used by tests and for custom
// transport timeouts.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(d *RemoteDetector) {
		if c != nil {
			d.client = c
		}
	}
}

// NewRemoteDetector creates a client for the daemon at baseURL.
func NewRemoteDetector(baseURL string, opts ...RemoteOption) *RemoteDetector {
	d := &RemoteDetector{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: defaultRemoteTimeout},
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// detectResponse mirrors the daemon's POST /detect response body.
type detectResponse struct {
	Emotion    string  `json:"emotion"`
	Confidence float64 `json:"confidence"`
	NoFace     bool    `json:"no_face"`
}

// Detect uploads the frame as multipart form data and decodes the result.
func (d *RemoteDetector) Detect(ctx context.Context, image []byte) (Result, error) {
	if len(image) == 0 {
		return Result{}, ErrEmptyImage
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	fw, err := writer.CreateFormFile("file", "frame.jpg")
	if err != nil {
		return Result{}, fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := fw.Write(image); err != nil {
		return Result{}, fmt.Errorf("write image bytes: %w", err)
	}
	if err := writer.Close(); err != nil {
		return Result{}, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/detect", &buf)
	if err != nil {
		return Result{}, fmt.Errorf("create detect request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}

	start := time.Now()
	resp, err := d.client.Do(req)
	metrics.RecordDetectionLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Result{}, fmt.Errorf("detect request: %w", ErrTimeout)
		}
		return Result{}, fmt.Errorf("detect request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read detect response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("detect status %d: %s", resp.StatusCode, string(body))
	}

	var dr detectResponse
	if err := json.Unmarshal(body, &dr); err != nil {
		return Result{}, fmt.Errorf("decode detect response: %w", ErrMalformedResponse)
	}

	if dr.NoFace {
		return Result{NoFace: true}, nil
	}

	e, err := emotion.Parse(dr.Emotion)
	if err != nil {
		return Result{}, fmt.Errorf("detect response label %q: %w", dr.Emotion, ErrMalformedResponse)
	}
	return Result{Emotion: e, Confidence: dr.Confidence}, nil
}
