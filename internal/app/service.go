// Package service provides the core business service that implements
// the dependencies required by the HTTP API: it owns the record store,
// the detector, and the lifecycle of tracking sessions.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/emotrack/internal/adapters/capture"
	"github.com/okian/emotrack/internal/adapters/detect"
	"github.com/okian/emotrack/internal/adapters/repository"
	"github.com/okian/emotrack/internal/domain/batch"
	"github.com/okian/emotrack/internal/domain/model"
	"github.com/okian/emotrack/internal/domain/sampler"
	"github.com/okian/emotrack/pkg/logger"
	"github.com/okian/emotrack/pkg/metrics"
)

// SourceFactory builds a fresh capture source for each tracking session.
type SourceFactory func() (capture.Source, error)

// Service implements the API dependencies for the emotion tracking system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	detector detect.Detector
	sources  SourceFactory

	// Configuration
	sampleInterval   int
	batchSize        int
	persistNoFace    bool
	detectionTimeout time.Duration

	// State
	started bool
	session *Session

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the record store backend.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithDetector sets the emotion recognition backend.
func WithDetector(det detect.Detector) Option {
	return func(s *Service) {
		if det != nil {
			s.detector = det
		}
	}
}

// WithSourceFactory sets how tracking sessions obtain their frame source.
func WithSourceFactory(factory SourceFactory) Option {
	return func(s *Service) {
		if factory != nil {
			s.sources = factory
		}
	}
}

// WithSampleInterval keeps one frame per interval captured frames.
func WithSampleInterval(interval int) Option {
	return func(s *Service) {
		if interval > 0 {
			s.sampleInterval = interval
		}
	}
}

// WithBatchSize sets the buffered-observation flush threshold.
func WithBatchSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// WithPersistNoFace controls whether NO_FACE observations are stored.
func WithPersistNoFace(persist bool) Option {
	return func(s *Service) {
		s.persistNoFace = persist
	}
}

// WithDetectionTimeout bounds a single recognition call.
func WithDetectionTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.detectionTimeout = timeout
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		sampleInterval:   24,
		batchSize:        60,
		persistNoFace:    true,
		detectionTimeout: 5 * time.Second,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start validates the wiring and marks the service ready.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.store == nil {
		return ErrMissingStore
	}
	if s.detector == nil {
		return ErrMissingDetector
	}
	if s.sources == nil {
		s.sources = func() (capture.Source, error) {
			return capture.NewSyntheticSource(), nil
		}
	}

	s.started = true
	s.logger.Info(ctx, "emotion tracking service started",
		logger.Int("sampleInterval", s.sampleInterval),
		logger.Int("batchSize", s.batchSize),
		logger.Bool("persistNoFace", s.persistNoFace),
		logger.Duration("detectionTimeout", s.detectionTimeout),
	)

	return nil
}

// Stop gracefully shuts down the service, ending any active session first.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping emotion tracking service...")

	if s.session != nil {
		if _, err := s.session.stop(ctx); err != nil {
			s.logger.Error(ctx, "final flush failed on shutdown", logger.Error(err))
		}
		s.session = nil
		metrics.UpdateActiveSessions(0)
	}

	if s.store != nil {
		_ = s.store.Close()
	}

	s.started = false
	s.logger.Info(ctx, "emotion tracking service stopped")
}

// StartTracking opens a new tracking session. Only one session may run at a
// time; a second start is refused rather than queued.
func (s *Service) StartTracking(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return "", ErrNotStarted
	}
	if s.session != nil {
		return "", ErrSessionActive
	}

	source, err := s.sources()
	if err != nil {
		return "", fmt.Errorf("open capture source: %w", err)
	}

	smp, err := sampler.New(s.sampleInterval)
	if err != nil {
		_ = source.Close()
		return "", fmt.Errorf("build sampler: %w", err)
	}
	buf := batch.New(s.store, batch.WithThreshold(s.batchSize))

	sess := newSession(source, smp, buf, s.detector, s.persistNoFace, s.detectionTimeout, s.logger)
	sess.run()
	s.session = sess
	metrics.UpdateActiveSessions(1)

	s.logger.Info(ctx, "tracking session started", logger.String("session", sess.ID()))
	return sess.ID(), nil
}

// StopTracking ends the active session: the frame loop drains, then the
// buffer flushes its remainder. A flush failure is reported to the caller;
// the unflushed observations stay in the buffer's stats as pending.
func (s *Service) StopTracking(ctx context.Context) (SessionStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return SessionStats{}, ErrNotStarted
	}
	if s.session == nil {
		return SessionStats{}, ErrNoActiveSession
	}

	stats, err := s.session.stop(ctx)
	s.session = nil
	metrics.UpdateActiveSessions(0)

	s.logger.Info(ctx, "tracking session stopped",
		logger.String("session", stats.ID),
		logger.Uint64("framesSeen", stats.FramesSeen),
		logger.Uint64("framesSampled", stats.FramesSampled),
		logger.Uint64("flushed", stats.Flushed),
	)
	return stats, err
}

// SessionStats reports the active session's counters.
func (s *Service) SessionStats() (SessionStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session == nil {
		return SessionStats{}, false
	}
	return s.session.Stats(), true
}

// DetectOnce runs a single recognition call outside any session, bounded by
// the configured detection timeout. Nothing is persisted.
func (s *Service) DetectOnce(ctx context.Context, image []byte) (detect.Result, error) {
	s.mu.RLock()
	det := s.detector
	timeout := s.detectionTimeout
	s.mu.RUnlock()

	if det == nil {
		return detect.Result{}, ErrMissingDetector
	}

	detectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return det.Detect(detectCtx, image)
}

// IngestBatch writes externally produced observations straight to the store.
func (s *Service) IngestBatch(ctx context.Context, observations []model.Observation) error {
	return s.store.WriteBatch(ctx, observations)
}

// DailyDistribution delegates to the record store.
func (s *Service) DailyDistribution(ctx context.Context, days int) (repository.DailyDistribution, error) {
	return s.store.DailyDistribution(ctx, days)
}

// Summary delegates to the record store.
func (s *Service) Summary(ctx context.Context) (repository.Summary, error) {
	return s.store.Summary(ctx)
}

// Export delegates to the record store.
func (s *Service) Export(ctx context.Context, format repository.Format) ([]byte, error) {
	return s.store.Export(ctx, format)
}

// ClearAll delegates to the record store, keeping its confirmation gate.
func (s *Service) ClearAll(ctx context.Context, confirm bool) error {
	return s.store.ClearAll(ctx, confirm)
}

// Ping verifies the record store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Stats is the service-level monitoring snapshot served by GET /stats.
type Stats struct {
	Started            bool          `json:"started"`
	SampleInterval     int           `json:"sample_interval"`
	BatchSize          int           `json:"batch_size"`
	PersistNoFace      bool          `json:"persist_no_face"`
	DetectionTimeout   string        `json:"detection_timeout"`
	StoredObservations int64         `json:"stored_observations"`
	Session            *SessionStats `json:"session,omitempty"`
}

// GetStats returns service statistics for monitoring. It also refreshes the
// stored-records gauge as a side effect.
func (s *Service) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		Started:          s.started,
		SampleInterval:   s.sampleInterval,
		BatchSize:        s.batchSize,
		PersistNoFace:    s.persistNoFace,
		DetectionTimeout: s.detectionTimeout.String(),
	}

	if s.session != nil {
		sess := s.session.Stats()
		stats.Session = &sess
	}
	if s.started {
		if n, err := s.store.Count(context.Background()); err == nil {
			stats.StoredObservations = n
			metrics.UpdateStoreRecords(n)
		}
	}

	return stats
}
