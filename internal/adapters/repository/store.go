// Package repository defines the observation record store interface and its
// SQLite and Postgres backends. The store is an append-oriented table:
// observations are written in batches, read by aggregation queries, never
// updated, and deleted only in bulk.
package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/emotrack/internal/domain/emotion"
	"github.com/okian/emotrack/internal/domain/model"
)

// DateFormat is the calendar-day key format used by aggregation results.
const DateFormat = "2006-01-02"

// Format selects an export encoding.
type Format string

// Supported export formats.
const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat converts a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON, "":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// DailyDistribution maps calendar days (DateFormat, store-local time) to
// per-emotion counts. Days without observations are present with empty maps.
type DailyDistribution map[string]map[emotion.Emotion]int64

// EmotionStat is one emotion's share of the persisted set.
type EmotionStat struct {
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Summary describes the whole persisted set. Percentages sum to 100 modulo
// floating rounding; the distribution covers every emotion present in the
// store, including NO_FACE when persisted.
type Summary struct {
	Total        int64                           `json:"total"`
	Distribution map[emotion.Emotion]EmotionStat `json:"distribution"`
	MostRecent   *model.Observation              `json:"most_recent,omitempty"`
	StartDate    string                          `json:"start_date,omitempty"`
	EndDate      string                          `json:"end_date,omitempty"`
}

// Store provides durable access to observations. Aggregations cover only
// persisted rows; buffered-but-unflushed observations are invisible until
// flushed. Implementations serialize WriteBatch and ClearAll against each
// other; reads may run concurrently.
type Store interface {
	// WriteBatch appends all observations in one transaction, all-or-nothing.
	// IDs and RecordedAt are assigned by the store in write order.
	WriteBatch(ctx context.Context, observations []model.Observation) error

	// DailyDistribution covers the trailing days calendar days ending today.
	DailyDistribution(ctx context.Context, days int) (DailyDistribution, error)

	// Summary aggregates the full persisted set.
	Summary(ctx context.Context) (Summary, error)

	// Export serializes every persisted observation, field for field.
	Export(ctx context.Context, format Format) ([]byte, error)

	// ClearAll deletes every observation. It fails with
	// ErrConfirmationRequired unless confirm is true, and is idempotent on an
	// empty store.
	ClearAll(ctx context.Context, confirm bool) error

	// Count returns the number of persisted observations.
	Count(ctx context.Context) (int64, error)

	// Ping verifies the backing database is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error
}
