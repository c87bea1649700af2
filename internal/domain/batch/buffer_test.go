package batch_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/emotrack/internal/domain/batch"
	"github.com/okian/emotrack/internal/domain/emotion"
	"github.com/okian/emotrack/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// recordingSink captures every flushed batch and can be told to fail.
type recordingSink struct {
	batches [][]model.Observation
	err     error
}

func (s *recordingSink) WriteBatch(_ context.Context, obs []model.Observation) error {
	if s.err != nil {
		return s.err
	}
	cp := make([]model.Observation, len(obs))
	copy(cp, obs)
	s.batches = append(s.batches, cp)
	return nil
}

func obsAt(i int) model.Observation {
	return model.NewObservation(time.Unix(int64(1700000000+i), 0), emotion.Happy)
}

func TestAutoFlush(t *testing.T) {
	Convey("Given a buffer with threshold M", t, func() {
		const m = 5

		sink := &recordingSink{}
		buf := batch.New(sink, batch.WithThreshold(m))
		ctx := context.Background()

		Convey("When adding fewer than M observations", func() {
			for i := 0; i < m-1; i++ {
				n, err := buf.Add(ctx, obsAt(i))
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 0)
			}

			Convey("Then nothing is flushed", func() {
				So(sink.batches, ShouldBeEmpty)
				So(buf.Len(), ShouldEqual, m-1)
			})
		})

		Convey("When the Mth add arrives", func() {
			var flushed int
			for i := 0; i < m; i++ {
				n, err := buf.Add(ctx, obsAt(i))
				So(err, ShouldBeNil)
				flushed += n
			}

			Convey("Then the flush includes the triggering element", func() {
				So(flushed, ShouldEqual, m)
				So(len(sink.batches), ShouldEqual, 1)
				So(len(sink.batches[0]), ShouldEqual, m)
				So(buf.Len(), ShouldEqual, 0)
			})
		})

		Convey("When adding N observations and flushing the remainder", func() {
			const n = 23 // with m=5: 4 auto flushes plus a remainder of 3

			for i := 0; i < n; i++ {
				_, err := buf.Add(ctx, obsAt(i))
				So(err, ShouldBeNil)
			}
			remainder, err := buf.Flush(ctx)
			So(err, ShouldBeNil)

			Convey("Then flush count and totals follow the threshold arithmetic", func() {
				So(len(sink.batches), ShouldEqual, n/m+1)
				So(remainder, ShouldEqual, n%m)

				total := 0
				for _, b := range sink.batches {
					So(len(b), ShouldBeLessThanOrEqualTo, m)
					total += len(b)
				}
				So(total, ShouldEqual, n)
			})
		})
	})
}

func TestManualFlush(t *testing.T) {
	Convey("Given a buffer holding a partial batch", t, func() {
		sink := &recordingSink{}
		buf := batch.New(sink, batch.WithThreshold(60))
		ctx := context.Background()

		for i := 0; i < 7; i++ {
			_, err := buf.Add(ctx, obsAt(i))
			So(err, ShouldBeNil)
		}

		Convey("When flushing explicitly at session end", func() {
			n, err := buf.Flush(ctx)

			Convey("Then fewer-than-M observations are not lost", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 7)
				So(len(sink.batches), ShouldEqual, 1)
				So(buf.Len(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given an empty buffer", t, func() {
		sink := &recordingSink{}
		buf := batch.New(sink)

		Convey("When flushing", func() {
			n, err := buf.Flush(context.Background())

			Convey("Then it is a no-op, not an error", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 0)
				So(sink.batches, ShouldBeEmpty)
			})
		})
	})
}

func TestFlushFailure(t *testing.T) {
	Convey("Given a sink that fails", t, func() {
		sink := &recordingSink{err: errors.New("disk full")}
		buf := batch.New(sink, batch.WithThreshold(3))
		ctx := context.Background()

		Convey("When the threshold flush fails", func() {
			var lastErr error
			for i := 0; i < 3; i++ {
				_, lastErr = buf.Add(ctx, obsAt(i))
			}

			Convey("Then the error propagates and the batch is retained", func() {
				So(lastErr, ShouldNotBeNil)
				So(buf.Len(), ShouldEqual, 3)
			})

			Convey("And a later retry succeeds with the retained batch", func() {
				sink.err = nil
				n, err := buf.Flush(ctx)

				So(err, ShouldBeNil)
				So(n, ShouldEqual, 3)
				So(len(sink.batches), ShouldEqual, 1)
				So(len(sink.batches[0]), ShouldEqual, 3)
			})
		})
	})
}
