package detect

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/emotrack/internal/domain/emotion"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRemoteDetect(t *testing.T) {
	ctx := context.Background()
	frame := []byte("not-really-a-jpeg")

	Convey("Given a remote detector against a daemon endpoint", t, func() {
		Convey("When the daemon returns a detection", func() {
			var gotAuth string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				if err := r.ParseMultipartForm(1 << 20); err != nil {
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				if _, _, err := r.FormFile("file"); err != nil {
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"emotion":"HAPPY","confidence":0.93}`))
			}))
			defer srv.Close()

			d := NewRemoteDetector(srv.URL, WithToken("sekrit"))
			res, err := d.Detect(ctx, frame)

			Convey("Then the result decodes with the bearer token sent", func() {
				So(err, ShouldBeNil)
				So(res.Emotion, ShouldEqual, emotion.Happy)
				So(res.Confidence, ShouldAlmostEqual, 0.93, 0.0001)
				So(gotAuth, ShouldEqual, "Bearer sekrit")
			})
		})

		Convey("When the daemon reports no face", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"emotion":"NO_FACE","confidence":0,"no_face":true}`))
			}))
			defer srv.Close()

			res, err := NewRemoteDetector(srv.URL).Detect(ctx, frame)

			Convey("Then the no-face outcome is returned without error", func() {
				So(err, ShouldBeNil)
				So(res.NoFace, ShouldBeTrue)
			})
		})

		Convey("When the daemon returns a server error", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "rekognition unavailable", http.StatusInternalServerError)
			}))
			defer srv.Close()

			_, err := NewRemoteDetector(srv.URL).Detect(ctx, frame)

			Convey("Then the failure surfaces as an error", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When the daemon returns an unknown label", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"emotion":"ECSTATIC","confidence":0.9}`))
			}))
			defer srv.Close()

			_, err := NewRemoteDetector(srv.URL).Detect(ctx, frame)

			Convey("Then the response is treated as malformed", func() {
				So(errors.Is(err, ErrMalformedResponse), ShouldBeTrue)
			})
		})

		Convey("When the daemon hangs beyond the deadline", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				// Drain the body so the server notices the client's
				// disconnect and cancels r.Context(); otherwise the
				// handler never returns and srv.Close deadlocks.
				_, _ = io.Copy(io.Discard, r.Body)
				<-r.Context().Done()
			}))
			defer srv.Close()

			tctx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
			defer cancel()
			_, err := NewRemoteDetector(srv.URL).Detect(tctx, frame)

			Convey("Then the error is the timeout sentinel", func() {
				So(errors.Is(err, ErrTimeout), ShouldBeTrue)
			})
		})

		Convey("When the image is empty", func() {
			_, err := NewRemoteDetector("http://127.0.0.1:0").Detect(ctx, nil)

			So(errors.Is(err, ErrEmptyImage), ShouldBeTrue)
		})
	})
}
