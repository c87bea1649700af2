package repository

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/emotrack/internal/domain/emotion"
	"github.com/okian/emotrack/internal/domain/model"
)

func newTestStore(t *testing.T, now time.Time) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:", WithNow(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func observationsAt(at time.Time, emotions ...emotion.Emotion) []model.Observation {
	obs := make([]model.Observation, len(emotions))
	for i, e := range emotions {
		obs[i] = model.NewObservation(at, e)
	}
	return obs
}

func TestSQLiteWriteBatch(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, time.March, 10, 15, 0, 0, 0, time.Local)

	Convey("Given an empty store", t, func() {
		store := newTestStore(t, now)

		Convey("When a batch of valid observations is written", func() {
			batch := observationsAt(now, emotion.Happy, emotion.Calm, emotion.NoFace)
			err := store.WriteBatch(ctx, batch)

			Convey("Then all rows are persisted", func() {
				So(err, ShouldBeNil)
				n, err := store.Count(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 3)
			})
		})

		Convey("When the batch contains an invalid label mid-way", func() {
			batch := observationsAt(now, emotion.Happy, emotion.Emotion("ECSTATIC"), emotion.Calm)
			err := store.WriteBatch(ctx, batch)

			Convey("Then the write fails and nothing is persisted", func() {
				So(err, ShouldWrap, ErrInvalidEmotion)
				n, cerr := store.Count(ctx)
				So(cerr, ShouldBeNil)
				So(n, ShouldEqual, 0)
			})
		})

		Convey("When an empty batch is written", func() {
			err := store.WriteBatch(ctx, nil)

			Convey("Then it is a no-op", func() {
				So(err, ShouldBeNil)
				n, cerr := store.Count(ctx)
				So(cerr, ShouldBeNil)
				So(n, ShouldEqual, 0)
			})
		})
	})
}

func TestSQLiteSummary(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, time.March, 10, 15, 0, 0, 0, time.Local)

	Convey("Given a store with a known distribution", t, func() {
		store := newTestStore(t, now)
		batch := observationsAt(now,
			emotion.Happy, emotion.Happy, emotion.Happy,
			emotion.Sad, emotion.Calm,
		)
		// Stagger timestamps so the most recent row is unambiguous.
		for i := range batch {
			batch[i].Timestamp += float64(i)
		}
		So(store.WriteBatch(ctx, batch), ShouldBeNil)

		Convey("When the summary is computed", func() {
			summary, err := store.Summary(ctx)

			Convey("Then counts and percentages reflect the writes", func() {
				So(err, ShouldBeNil)
				So(summary.Total, ShouldEqual, 5)
				So(summary.Distribution[emotion.Happy].Count, ShouldEqual, 3)
				So(summary.Distribution[emotion.Happy].Percentage, ShouldAlmostEqual, 60.0)
				So(summary.Distribution[emotion.Sad].Percentage, ShouldAlmostEqual, 20.0)
				So(summary.Distribution[emotion.Calm].Percentage, ShouldAlmostEqual, 20.0)

				var sum float64
				for _, stat := range summary.Distribution {
					sum += stat.Percentage
				}
				So(sum, ShouldAlmostEqual, 100.0)
			})

			Convey("Then the most recent observation is the latest timestamp", func() {
				So(err, ShouldBeNil)
				So(summary.MostRecent, ShouldNotBeNil)
				So(summary.MostRecent.Emotion, ShouldEqual, emotion.Calm)
			})

			Convey("Then the date range covers the written window", func() {
				So(err, ShouldBeNil)
				So(summary.StartDate, ShouldEqual, now.Format(DateFormat))
				So(summary.EndDate, ShouldEqual, now.Format(DateFormat))
			})
		})

		Convey("When the store is empty", func() {
			So(store.ClearAll(ctx, true), ShouldBeNil)
			summary, err := store.Summary(ctx)

			Convey("Then the summary is zero-valued without error", func() {
				So(err, ShouldBeNil)
				So(summary.Total, ShouldEqual, 0)
				So(summary.MostRecent, ShouldBeNil)
				So(summary.Distribution, ShouldBeEmpty)
			})
		})
	})
}

func TestSQLiteDailyDistribution(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, time.March, 10, 15, 0, 0, 0, time.Local)

	Convey("Given observations spread across two days", t, func() {
		store := newTestStore(t, now)
		yesterday := now.AddDate(0, 0, -1)

		batch := observationsAt(now, emotion.Happy, emotion.Happy)
		batch = append(batch, observationsAt(yesterday, emotion.Sad)...)
		So(store.WriteBatch(ctx, batch), ShouldBeNil)

		Convey("When a 7-day distribution is requested", func() {
			dist, err := store.DailyDistribution(ctx, 7)

			Convey("Then every day of the window is present", func() {
				So(err, ShouldBeNil)
				So(dist, ShouldHaveLength, 7)
			})

			Convey("Then counts land in the right buckets", func() {
				So(err, ShouldBeNil)
				So(dist[now.Format(DateFormat)][emotion.Happy], ShouldEqual, 2)
				So(dist[yesterday.Format(DateFormat)][emotion.Sad], ShouldEqual, 1)
			})

			Convey("Then untouched days carry empty maps", func() {
				So(err, ShouldBeNil)
				twoDaysAgo := now.AddDate(0, 0, -2).Format(DateFormat)
				So(dist[twoDaysAgo], ShouldNotBeNil)
				So(dist[twoDaysAgo], ShouldBeEmpty)
			})
		})

		Convey("When the window excludes older observations", func() {
			dist, err := store.DailyDistribution(ctx, 1)

			Convey("Then only today's bucket is returned", func() {
				So(err, ShouldBeNil)
				So(dist, ShouldHaveLength, 1)
				So(dist[now.Format(DateFormat)][emotion.Happy], ShouldEqual, 2)
			})
		})

		Convey("When the window size is invalid", func() {
			_, err := store.DailyDistribution(ctx, 0)

			Convey("Then the request is rejected", func() {
				So(err, ShouldWrap, ErrInvalidDays)
			})
		})
	})
}

func TestSQLiteExport(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, time.March, 10, 15, 0, 0, 0, time.Local)

	Convey("Given a store with a few observations", t, func() {
		store := newTestStore(t, now)
		So(store.WriteBatch(ctx, observationsAt(now, emotion.Happy, emotion.NoFace)), ShouldBeNil)

		Convey("When exported as JSON", func() {
			data, err := store.Export(ctx, FormatJSON)

			Convey("Then the payload decodes back to the stored rows", func() {
				So(err, ShouldBeNil)
				var records []exportRecord
				So(json.Unmarshal(data, &records), ShouldBeNil)
				So(records, ShouldHaveLength, 2)
				So(records[0].Emotion, ShouldEqual, "HAPPY")
				So(records[1].Emotion, ShouldEqual, "NO_FACE")
				So(records[0].ID, ShouldEqual, 1)
			})
		})

		Convey("When exported as CSV", func() {
			data, err := store.Export(ctx, FormatCSV)

			Convey("Then the header and rows are present", func() {
				So(err, ShouldBeNil)
				lines := strings.Split(strings.TrimSpace(string(data)), "\n")
				So(lines, ShouldHaveLength, 3)
				So(lines[0], ShouldEqual, "id,timestamp,emotion,recorded_at")
				So(lines[1], ShouldContainSubstring, "HAPPY")
				So(lines[2], ShouldContainSubstring, "NO_FACE")
			})
		})

		Convey("When an unknown format is requested", func() {
			_, err := store.Export(ctx, Format("xml"))

			Convey("Then the request is rejected", func() {
				So(err, ShouldWrap, ErrUnknownFormat)
			})
		})
	})
}

func TestSQLiteClearAll(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, time.March, 10, 15, 0, 0, 0, time.Local)

	Convey("Given a populated store", t, func() {
		store := newTestStore(t, now)
		So(store.WriteBatch(ctx, observationsAt(now, emotion.Happy, emotion.Sad)), ShouldBeNil)

		Convey("When clearing without confirmation", func() {
			err := store.ClearAll(ctx, false)

			Convey("Then the request is refused and rows survive", func() {
				So(err, ShouldWrap, ErrConfirmationRequired)
				n, cerr := store.Count(ctx)
				So(cerr, ShouldBeNil)
				So(n, ShouldEqual, 2)
			})
		})

		Convey("When clearing with confirmation", func() {
			err := store.ClearAll(ctx, true)

			Convey("Then the store is emptied", func() {
				So(err, ShouldBeNil)
				n, cerr := store.Count(ctx)
				So(cerr, ShouldBeNil)
				So(n, ShouldEqual, 0)
			})

			Convey("Then clearing again is idempotent", func() {
				So(store.ClearAll(ctx, true), ShouldBeNil)
			})
		})
	})
}

func TestParseFormat(t *testing.T) {
	Convey("Given format strings from query parameters", t, func() {
		Convey("Then known and default values resolve", func() {
			f, err := ParseFormat("json")
			So(err, ShouldBeNil)
			So(f, ShouldEqual, FormatJSON)

			f, err = ParseFormat("CSV")
			So(err, ShouldBeNil)
			So(f, ShouldEqual, FormatCSV)

			f, err = ParseFormat("")
			So(err, ShouldBeNil)
			So(f, ShouldEqual, FormatJSON)
		})

		Convey("Then unknown values are rejected", func() {
			_, err := ParseFormat("xml")
			So(err, ShouldWrap, ErrUnknownFormat)
		})
	})
}
