// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/emotrack/internal/domain/emotion"
)

// Observation is one persisted emotion reading. Observations are immutable
// once written; the only mutation the store supports is bulk deletion.
type Observation struct {
	// ID is assigned by the record store in write order, not detection order.
	ID uint64 `json:"id"`
	// Timestamp is seconds since epoch, captured at detection time.
	Timestamp float64 `json:"timestamp"`
	// Emotion is a member of the closed label set.
	Emotion emotion.Emotion `json:"emotion"`
	// RecordedAt is the wall-clock time of the durable write.
	RecordedAt time.Time `json:"recorded_at"`
}

// NewObservation builds an unpersisted observation for a detection that
// happened at the given time. ID and RecordedAt are filled in by the store.
func NewObservation(at time.Time, e emotion.Emotion) Observation {
	return Observation{
		Timestamp: float64(at.UnixNano()) / float64(time.Second),
		Emotion:   e,
	}
}

// Frame is a single captured video frame, already encoded (typically JPEG).
// Frame data is shared by reference and must not be modified after capture.
type Frame struct {
	Data       []byte
	Index      uint64
	CapturedAt time.Time
}
