package capture

import (
	"context"
	"sync"
	"time"

	"github.com/okian/emotrack/internal/domain/model"
)

// Default generator configuration, matching a typical webcam rate.
const (
	defaultFPS = 24
)

// minimalJPEG is a syntactically valid 1x1 JPEG used as synthetic frame
// payload, so downstream code sees realistic encoded bytes.
var minimalJPEG = []byte{
	0xff, 0xd8, 0xff, 0xdb, 0x00, 0x43, 0x00,
	0x08, 0x06, 0x06, 0x07, 0x06, 0x05, 0x08, 0x07, 0x07, 0x07,
	0x09, 0x09, 0x08, 0x0a, 0x0c, 0x14, 0x0d, 0x0c, 0x0b, 0x0b,
	0x0c, 0x19, 0x12, 0x13, 0x0f, 0x14, 0x1d, 0x1a, 0x1f, 0x1e,
	0x1d, 0x1a, 0x1c, 0x1c, 0x20, 0x24, 0x2e, 0x27, 0x20, 0x22,
	0x2c, 0x23, 0x1c, 0x1c, 0x28, 0x37, 0x29, 0x2c, 0x30, 0x31,
	0x34, 0x34, 0x34, 0x1f, 0x27, 0x39, 0x3d, 0x38, 0x32, 0x3c,
	0x2e, 0x33, 0x34, 0x32,
	0xff, 0xc0, 0x00, 0x0b, 0x08, 0x00, 0x01, 0x00, 0x01, 0x01,
	0x01, 0x11, 0x00,
	0xff, 0xc4, 0x00, 0x1f, 0x00, 0x00, 0x01, 0x05, 0x01, 0x01,
	0x01, 0x01, 0x01, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
	0x09, 0x0a, 0x0b,
	0xff, 0xda, 0x00, 0x08, 0x01, 0x01, 0x00, 0x00, 0x3f, 0x00,
	0x7f, 0xff, 0xd9,
}

// SyntheticSource generates frames at a fixed rate. With a frame limit it
// stops after the limit; with FPS of 0 it produces frames as fast as the
// consumer reads them, which is what tests want.
type SyntheticSource struct {
	fps   int
	limit uint64

	closeOnce sync.Once
	closed    chan struct{}
}

// SyntheticOption applies a configuration option to the SyntheticSource.
type SyntheticOption func(*SyntheticSource)

// WithFPS sets the generation rate in frames per second. Zero disables
// pacing entirely.
func WithFPS(fps int) SyntheticOption {
	return func(s *SyntheticSource) {
		if fps >= 0 {
			s.fps = fps
		}
	}
}

// WithFrameLimit stops the source after n frames. Zero means unbounded.
func WithFrameLimit(n uint64) SyntheticOption {
	return func(s *SyntheticSource) {
		s.limit = n
	}
}

// NewSyntheticSource creates a generator with the given options.
func NewSyntheticSource(opts ...SyntheticOption) *SyntheticSource {
	s := &SyntheticSource{
		fps:    defaultFPS,
		closed: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Frames starts the generator goroutine and returns its output channel.
func (s *SyntheticSource) Frames(ctx context.Context) <-chan model.Frame {
	out := make(chan model.Frame)

	go func() {
		defer close(out)

		var ticker *time.Ticker
		if s.fps > 0 {
			ticker = time.NewTicker(time.Second / time.Duration(s.fps))
			defer ticker.Stop()
		}

		for index := uint64(0); s.limit == 0 || index < s.limit; index++ {
			if ticker != nil {
				select {
				case <-ticker.C:
				case <-ctx.Done():
					return
				case <-s.closed:
					return
				}
			}

			frame := model.Frame{
				Data:       minimalJPEG,
				Index:      index,
				CapturedAt: time.Now(),
			}
			select {
			case out <- frame:
			case <-ctx.Done():
				return
			case <-s.closed:
				return
			}
		}
	}()

	return out
}

// Close stops the generator.
func (s *SyntheticSource) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}
