// Package batch accumulates observations in memory and hands them to the
// record store as one bulk write, either when a size threshold is reached or
// on an explicit flush at session end.
package batch

import (
	"context"
	"fmt"

	"github.com/okian/emotrack/internal/domain/model"
	"github.com/okian/emotrack/pkg/metrics"
)

// defaultThreshold matches the original application's batch size.
const defaultThreshold = 60

// Sink receives flushed batches. The write must be all-or-nothing.
type Sink interface {
	WriteBatch(ctx context.Context, observations []model.Observation) error
}

// Buffer is an ordered in-memory sequence of observations with synchronous
// auto-flush. It is owned by a single session and is not safe for concurrent
// use. Unflushed contents are lost on process termination; that is accepted
// behavior, not a defect.
type Buffer struct {
	sink      Sink
	threshold int
	pending   []model.Observation
}

// Option applies a configuration option to the Buffer.
type Option func(*Buffer)

// WithThreshold sets the auto-flush threshold M.
func WithThreshold(m int) Option {
	return func(b *Buffer) {
		if m > 0 {
			b.threshold = m
		}
	}
}

// New creates a buffer flushing into sink.
func New(sink Sink, opts ...Option) *Buffer {
	b := &Buffer{
		sink:      sink,
		threshold: defaultThreshold,
	}

	for _, opt := range opts {
		opt(b)
	}

	b.pending = make([]model.Observation, 0, b.threshold)
	return b
}

// Add appends an observation and, if the buffer has reached the threshold,
// flushes synchronously; the triggering element is part of the flushed batch.
// The returned count is the number of observations written by an auto-flush
// (0 when no flush was due). On a flush failure the buffer keeps its
// contents so the caller can retry, and the error is returned.
func (b *Buffer) Add(ctx context.Context, obs model.Observation) (int, error) {
	b.pending = append(b.pending, obs)
	metrics.UpdateBufferSize(len(b.pending))

	if len(b.pending) < b.threshold {
		return 0, nil
	}
	return b.Flush(ctx)
}

// Flush writes the whole current sequence to the sink as one batch and clears
// it, returning the count written. Flushing an empty buffer is a no-op, not
// an error. On sink failure the buffer is retained unchanged.
func (b *Buffer) Flush(ctx context.Context) (int, error) {
	if len(b.pending) == 0 {
		return 0, nil
	}

	if err := b.sink.WriteBatch(ctx, b.pending); err != nil {
		metrics.RecordFlushError()
		return 0, fmt.Errorf("flush %d observations: %w", len(b.pending), err)
	}

	n := len(b.pending)
	b.pending = make([]model.Observation, 0, b.threshold)
	metrics.RecordBatchFlush(n)
	metrics.UpdateBufferSize(0)
	return n, nil
}

// Len returns the number of buffered observations.
func (b *Buffer) Len() int { return len(b.pending) }

// Threshold returns the configured auto-flush threshold.
func (b *Buffer) Threshold() int { return b.threshold }
