package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/emotrack/internal/domain/emotion"
	"github.com/okian/emotrack/internal/domain/model"
	"github.com/okian/emotrack/pkg/metrics"
)

// observationRow is the gorm mapping for the observations table.
type observationRow struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	Timestamp  float64   `gorm:"column:timestamp;not null"`
	Emotion    string    `gorm:"column:emotion;not null"`
	RecordedAt time.Time `gorm:"column:recorded_at;not null"`
}

func (observationRow) TableName() string { return "observations" }

func (r observationRow) toModel() model.Observation {
	return model.Observation{
		ID:         r.ID,
		Timestamp:  r.Timestamp,
		Emotion:    emotion.Emotion(r.Emotion),
		RecordedAt: r.RecordedAt,
	}
}

// SQLiteStore implements Store on a local SQLite file via gorm. It is the
// single-process deployment's store, equivalent to the classic emotions.db.
type SQLiteStore struct {
	db      *gorm.DB
	writeMu sync.Mutex
	now     func() time.Time
}

// NewSQLiteStore opens (creating if needed) the database at path and
// migrates the observations table. Use ":memory:" for an ephemeral store.
func NewSQLiteStore(path string, opts ...Option) (*SQLiteStore, error) {
	o := newStoreOptions(opts)

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %q: %w", path, err)
	}

	if err := db.AutoMigrate(&observationRow{}); err != nil {
		return nil, fmt.Errorf("migrate observations table: %w", err)
	}

	return &SQLiteStore{db: db, now: o.now}, nil
}

// WriteBatch appends all observations in one transaction. A single invalid
// row rolls back the whole batch.
func (s *SQLiteStore) WriteBatch(ctx context.Context, observations []model.Observation) error {
	if len(observations) == 0 {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	start := time.Now()
	recordedAt := s.now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, obs := range observations {
			if !obs.Emotion.Valid() {
				return fmt.Errorf("%w: %q", ErrInvalidEmotion, obs.Emotion)
			}
			row := observationRow{
				Timestamp:  obs.Timestamp,
				Emotion:    obs.Emotion.String(),
				RecordedAt: recordedAt,
			}
			if err := tx.Create(&row).Error; err != nil {
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
func (s *SQLiteStore) DailyDistribution(ctx context.Context, days int) (DailyDistribution, error) {
	if days < 1 {
		return nil, ErrInvalidDays
	}

	start := windowStart(s.now(), days)
	var rows []observationRow
	err := s.db.WithContext(ctx).
		Where("timestamp >= ?", float64(start.Unix())).
		Order("id asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query daily window: %w", err)
	}

	observations := make([]model.Observation, len(rows))
	for i, r := range rows {
		observations[i] = r.toModel()
	}
	return groupDaily(observations, days, s.now()), nil
}

// Summary aggregates the whole persisted set.
func (s *SQLiteStore) Summary(ctx context.Context) (Summary, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&observationRow{}).Count(&total).Error; err != nil {
		return Summary{}, fmt.Errorf("count observations: %w", err)
	}

	summary := Summary{Total: total, Distribution: map[emotion.Emotion]EmotionStat{}}
	if total == 0 {
		return summary, nil
	}

	var grouped []struct {
		Emotion string
		Count   int64
	}
	err := s.db.WithContext(ctx).Model(&observationRow{}).
		Select("emotion, count(*) as count").
		Group("emotion").
		Scan(&grouped).Error
	if err != nil {
		return Summary{}, fmt.Errorf("group by emotion: %w", err)
	}

	counts := make(map[emotion.Emotion]int64, len(grouped))
	for _, g := range grouped {
		counts[emotion.Emotion(g.Emotion)] = g.Count
	}
	summary.Distribution = distributionFrom(counts, total)

	var recent observationRow
	if err := s.db.WithContext(ctx).Order("timestamp desc").First(&recent).Error; err != nil {
		return Summary{}, fmt.Errorf("query most recent: %w", err)
	}
	mostRecent := recent.toModel()
	summary.MostRecent = &mostRecent

	var bounds struct {
		Min float64
		Max float64
	}
	err = s.db.WithContext(ctx).Model(&observationRow{}).
		Select("min(timestamp) as min, max(timestamp) as max").
		Scan(&bounds).Error
	if err != nil {
		return Summary{}, fmt.Errorf("query date range: %w", err)
	}
	summary.StartDate = timestampTime(bounds.Min).Local().Format(DateFormat)
	summary.EndDate = timestampTime(bounds.Max).Local().Format(DateFormat)

	return summary, nil
}

// Export serializes every persisted observation in write order.
func (s *SQLiteStore) Export(ctx context.Context, format Format) ([]byte, error) {
	var rows []observationRow
	if err := s.db.WithContext(ctx).Order("id asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}

	observations := make([]model.Observation, len(rows))
	for i, r := range rows {
		observations[i] = r.toModel()
	}
	return encodeExport(observations, format)
}

// ClearAll deletes every observation; see Store for the confirmation gate.
func (s *SQLiteStore) ClearAll(ctx context.Context, confirm bool) error {
	if !confirm {
		return ErrConfirmationRequired
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.db.WithContext(ctx).Exec("DELETE FROM observations").Error; err != nil {
		return fmt.Errorf("clear observations: %w", err)
	}
	metrics.UpdateStoreRecords(0)
	return nil
}

// Count returns the number of persisted observations.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&observationRow{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count observations: %w", err)
	}
	return n, nil
}

// Ping verifies the underlying connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("unwrap sql db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlite: %w", err)
	}
	return nil
}

// Close releases the underlying connection.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("unwrap sql db: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}
