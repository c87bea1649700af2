// Package sampler implements the fixed-stride frame sampling policy: of
// every K consecutive frames, exactly one is forwarded to the recognition
// adapter and the rest are discarded without inspection.
package sampler

import (
	"fmt"
)

// Sampler is a stride counter over a frame sequence. For interval K it keeps
// frames 1, K+1, 2K+1, and so on, which is ceil(L/K) of any L frames. The
// counter advances on every frame regardless of what happens downstream: a
// failed detection consumes its turn and does not earn a retry on the next
// frame. Not safe for concurrent use; one session owns one sampler.
type Sampler struct {
	interval uint64
	seen     uint64
}

// New creates a sampler with the given interval. The interval must be a
// positive integer; 1 keeps every frame.
func New(interval int) (*Sampler, error) {
	if interval < 1 {
		return nil, fmt.Errorf("sample interval must be >= 1, got %d", interval)
	}
	return &Sampler{interval: uint64(interval)}, nil
}

// Keep advances the stride by one frame and reports whether that frame is the
// one to forward. Dropped frames are gone permanently; the sampler never
// buffers.
func (s *Sampler) Keep() bool {
	keep := s.seen%s.interval == 0
	s.seen++
	return keep
}

// Seen returns the number of frames observed since session start.
func (s *Sampler) Seen() uint64 { return s.seen }

// Interval returns the configured stride.
func (s *Sampler) Interval() int { return int(s.interval) }
