package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/emotrack/internal/domain/emotion"
	"github.com/okian/emotrack/internal/domain/model"
	"github.com/okian/emotrack/pkg/metrics"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS observations (
	id          BIGSERIAL PRIMARY KEY,
	timestamp   DOUBLE PRECISION NOT NULL,
	emotion     TEXT NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL
)`

// PostgresStore implements Store on a PostgreSQL pool. It carries the same
// semantics as SQLiteStore; aggregation happens Go-side so both backends
// bucket days and compute percentages identically.
type PostgresStore struct {
	pool    *pgxpool.Pool
	writeMu sync.Mutex
	now     func() time.Time
}

// NewPostgresStore connects to the given DSN and ensures the observations
// table exists.
func NewPostgresStore(ctx context.Context, dsn string, opts ...Option) (*PostgresStore, error) {
	o := newStoreOptions(opts)

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create observations table: %w", err)
	}

	return &PostgresStore{pool: pool, now: o.now}, nil
}

// WriteBatch appends all observations in one transaction. A single invalid
// row rolls back the whole batch.
func (s *PostgresStore) WriteBatch(ctx context.Context, observations []model.Observation) error {
	if len(observations) == 0 {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	start := time.Now()
	recordedAt := s.now()

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, obs := range observations {
			if !obs.Emotion.Valid() {
				return fmt.Errorf("%w: %q", ErrInvalidEmotion, obs.Emotion)
			}
			_, err := tx.Exec(ctx,
				`INSERT INTO observations (timestamp, emotion, recorded_at) VALUES ($1, $2, $3)`,
				obs.Timestamp, obs.Emotion.String(), recordedAt)
			if err != nil {
				return fmt.Errorf("insert observation: %w", err)
			}
		}
		return nil
	})

	metrics.RecordStoreWriteLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordStoreWriteError()
		return err
	}

	metrics.RecordObservationsWritten(len(observations))
	if n, cerr := s.Count(ctx); cerr == nil {
		metrics.UpdateStoreRecords(n)
	}
	return nil
}

// DailyDistribution buckets the trailing window into calendar days.
func (s *PostgresStore) DailyDistribution(ctx context.Context, days int) (DailyDistribution, error) {
	if days < 1 {
		return nil, ErrInvalidDays
	}

	start := windowStart(s.now(), days)
	observations, err := s.scanObservations(ctx,
		`SELECT id, timestamp, emotion, recorded_at FROM observations WHERE timestamp >= $1 ORDER BY id`,
		float64(start.Unix()))
	if err != nil {
		return nil, fmt.Errorf("query daily window: %w", err)
	}
	return groupDaily(observations, days, s.now()), nil
}

// Summary aggregates the whole persisted set.
func (s *PostgresStore) Summary(ctx context.Context) (Summary, error) {
	total, err := s.Count(ctx)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Total: total, Distribution: map[emotion.Emotion]EmotionStat{}}
	if total == 0 {
		return summary, nil
	}

	rows, err := s.pool.Query(ctx, `SELECT emotion, count(*) FROM observations GROUP BY emotion`)
	if err != nil {
		return Summary{}, fmt.Errorf("group by emotion: %w", err)
	}
	defer rows.Close()

	counts := map[emotion.Emotion]int64{}
	for rows.Next() {
		var label string
		var count int64
		if err := rows.Scan(&label, &count); err != nil {
			return Summary{}, fmt.Errorf("scan emotion count: %w", err)
		}
		counts[emotion.Emotion(label)] = count
	}
	if err := rows.Err(); err != nil {
		return Summary{}, fmt.Errorf("iterate emotion counts: %w", err)
	}
	summary.Distribution = distributionFrom(counts, total)

	recent, err := s.scanObservations(ctx,
		`SELECT id, timestamp, emotion, recorded_at FROM observations ORDER BY timestamp DESC LIMIT 1`)
	if err != nil {
		return Summary{}, fmt.Errorf("query most recent: %w", err)
	}
	if len(recent) > 0 {
		summary.MostRecent = &recent[0]
	}

	var minTS, maxTS float64
	err = s.pool.QueryRow(ctx, `SELECT min(timestamp), max(timestamp) FROM observations`).Scan(&minTS, &maxTS)
	if err != nil {
		return Summary{}, fmt.Errorf("query date range: %w", err)
	}
	summary.StartDate = timestampTime(minTS).Local().Format(DateFormat)
	summary.EndDate = timestampTime(maxTS).Local().Format(DateFormat)

	return summary, nil
}

// Export serializes every persisted observation in write order.
func (s *PostgresStore) Export(ctx context.Context, format Format) ([]byte, error) {
	observations, err := s.scanObservations(ctx,
		`SELECT id, timestamp, emotion, recorded_at FROM observations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	return encodeExport(observations, format)
}

// ClearAll deletes every observation; see Store for the confirmation gate.
func (s *PostgresStore) ClearAll(ctx context.Context, confirm bool) error {
	if !confirm {
		return ErrConfirmationRequired
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.pool.Exec(ctx, `DELETE FROM observations`); err != nil {
		return fmt.Errorf("clear observations: %w", err)
	}
	metrics.UpdateStoreRecords(0)
	return nil
}

// Count returns the number of persisted observations.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM observations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count observations: %w", err)
	}
	return n, nil
}

// Ping verifies the underlying pool.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) scanObservations(ctx context.Context, query string, args ...any) ([]model.Observation, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var observations []model.Observation
	for rows.Next() {
		var obs model.Observation
		var label string
		if err := rows.Scan(&obs.ID, &obs.Timestamp, &label, &obs.RecordedAt); err != nil {
			return nil, err
		}
		obs.Emotion = emotion.Emotion(label)
		observations = append(observations, obs)
	}
	return observations, rows.Err()
}
