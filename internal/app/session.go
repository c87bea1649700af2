package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/emotrack/internal/adapters/capture"
	"github.com/okian/emotrack/internal/adapters/detect"
	"github.com/okian/emotrack/internal/domain/batch"
	"github.com/okian/emotrack/internal/domain/emotion"
	"github.com/okian/emotrack/internal/domain/model"
	"github.com/okian/emotrack/internal/domain/sampler"
	"github.com/okian/emotrack/pkg/logger"
	"github.com/okian/emotrack/pkg/metrics"
)

// stopFlushTimeout bounds the final flush after the frame loop drains.
const stopFlushTimeout = 30 * time.Second

// SessionStats summarizes one tracking session's pipeline counters.
type SessionStats struct {
	ID              string    `json:"id"`
	StartedAt       time.Time `json:"started_at"`
	FramesSeen      uint64    `json:"frames_seen"`
	FramesSampled   uint64    `json:"frames_sampled"`
	Detections      uint64    `json:"detections"`
	NoFaceFrames    uint64    `json:"no_face_frames"`
	DetectionErrors uint64    `json:"detection_errors"`
	Buffered        uint64    `json:"buffered"`
	Flushed         uint64    `json:"flushed"`
	FlushErrors     uint64    `json:"flush_errors"`
	PendingAtStop   int       `json:"pending_at_stop,omitempty"`
}

// Session runs one capture-to-store pipeline. Frames are consumed
// sequentially: at most one detection call is in flight, so a slow
// recognition backend naturally backpressures the loop instead of
// piling up concurrent requests.
type Session struct {
	id               string
	startedAt        time.Time
	source           capture.Source
	sampler          *sampler.Sampler
	buffer           *batch.Buffer
	detector         detect.Detector
	persistNoFace    bool
	detectionTimeout time.Duration
	log              logger.Logger

	cancel context.CancelFunc
	done   chan struct{}

	mu    sync.Mutex
	stats SessionStats
}

func newSession(
	source capture.Source,
	smp *sampler.Sampler,
	buf *batch.Buffer,
	det detect.Detector,
	persistNoFace bool,
	detectionTimeout time.Duration,
	log logger.Logger,
) *Session {
	id := uuid.NewString()
	return &Session{
		id:               id,
		startedAt:        time.Now(),
		source:           source,
		sampler:          smp,
		buffer:           buf,
		detector:         det,
		persistNoFace:    persistNoFace,
		detectionTimeout: detectionTimeout,
		log:              log.Named("session"),
		done:             make(chan struct{}),
		stats:            SessionStats{ID: id},
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// run starts the frame loop. It returns immediately; the loop ends when the
// source's frame channel closes. The session owns its run context: the
// caller's context is typically an HTTP request that ends as soon as the
// start handler returns, long before the session does.
func (s *Session) run() {
	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.stats.StartedAt = s.startedAt

	frames := s.source.Frames(runCtx)
	go func() {
		defer close(s.done)
		for frame := range frames {
			metrics.RecordFrameSeen()
			s.bump(func(st *SessionStats) { st.FramesSeen++ })

			if !s.sampler.Keep() {
				continue
			}
			metrics.RecordFrameSampled()
			s.bump(func(st *SessionStats) { st.FramesSampled++ })

			s.processFrame(runCtx, frame)
		}
	}()
}

// processFrame runs one detection and buffers the resulting observation.
// Detection failures are logged and counted; the loop moves on to the next
// frame rather than tearing the session down.
func (s *Session) processFrame(ctx context.Context, frame model.Frame) {
	detectCtx, cancel := context.WithTimeout(ctx, s.detectionTimeout)
	// Detectors observe their own call latency.
	result, err := s.detector.Detect(detectCtx, frame.Data)
	cancel()

	if err != nil {
		metrics.RecordDetection(metrics.OutcomeFailed)
		s.bump(func(st *SessionStats) { st.DetectionErrors++ })
		s.log.Warn(ctx, "detection failed",
			logger.Uint64("frame", frame.Index),
			logger.Error(err),
		)
		return
	}

	var obs model.Observation
	if result.NoFace {
		metrics.RecordDetection(metrics.OutcomeNoFace)
		s.bump(func(st *SessionStats) { st.NoFaceFrames++ })
		if !s.persistNoFace {
			return
		}
		obs = model.NewObservation(frame.CapturedAt, emotion.NoFace)
	} else {
		metrics.RecordDetection(metrics.OutcomeDetected)
		s.bump(func(st *SessionStats) { st.Detections++ })
		obs = model.NewObservation(frame.CapturedAt, result.Emotion)
	}

	flushed, err := s.buffer.Add(ctx, obs)
	s.bump(func(st *SessionStats) { st.Buffered++ })
	if err != nil {
		// The buffer keeps the batch; it will retry on the next flush.
		s.bump(func(st *SessionStats) { st.FlushErrors++ })
		s.log.Error(ctx, "batch flush failed",
			logger.Int("pending", s.buffer.Len()),
			logger.Error(err),
		)
		return
	}
	if flushed > 0 {
		s.bump(func(st *SessionStats) { st.Flushed += uint64(flushed) })
	}
}

// stop ends the frame loop, then flushes whatever the buffer still holds.
// Ordering matters: no frame may be sampled after the final flush starts.
func (s *Session) stop(ctx context.Context) (SessionStats, error) {
	s.cancel()
	_ = s.source.Close()
	<-s.done

	// The run context is gone by now; give the last flush its own deadline.
	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopFlushTimeout)
	defer cancel()

	flushed, err := s.buffer.Flush(flushCtx)
	if flushed > 0 {
		s.bump(func(st *SessionStats) { st.Flushed += uint64(flushed) })
	}
	if err != nil {
		s.bump(func(st *SessionStats) { st.FlushErrors++ })
	}

	s.mu.Lock()
	s.stats.PendingAtStop = s.buffer.Len()
	stats := s.stats
	s.mu.Unlock()
	return stats, err
}

// Stats returns a snapshot of the session counters.
func (s *Session) Stats() SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Session) bump(fn func(*SessionStats)) {
	s.mu.Lock()
	fn(&s.stats)
	s.mu.Unlock()
}
