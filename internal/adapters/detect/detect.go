// Package detect wraps external facial-emotion recognition behind a single
// operation: image bytes in, an emotion label with confidence out, or an
// explicit no-face result. Every call is a billable external request; the
// sampler upstream decides how often this package is invoked, and no
// implementation retries on its own.
package detect

import (
	"context"

	"github.com/okian/emotrack/internal/domain/emotion"
)

// Result is a successful detection outcome. Either NoFace is true, or
// Emotion/Confidence describe the best-guess label for the most prominent
// face.
type Result struct {
	// NoFace means the service found no usable face in the frame. It is a
	// valid outcome, not an error; transport and credential failures are
	// returned as errors and never coerced into NoFace.
	NoFace bool

	// Emotion is the winning label from the closed set.
	Emotion emotion.Emotion

	// Confidence is normalized to 0.0..1.0.
	Confidence float64
}

// Detector is the recognition adapter contract. A non-nil error covers
// transport failures, missing or invalid credentials, malformed responses and
// timeouts (ErrTimeout); callers bound hung calls with a context deadline.
//
// Face and tie-break policy, shared by all implementations: only the first
// face in the service's returned order is considered, and among its reported
// emotions the highest-confidence label wins, with ties broken in favor of
// the earliest element in the service's returned order.
type Detector interface {
	Detect(ctx context.Context, image []byte) (Result, error)
}
