package detect

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/rekognition"

	"github.com/okian/emotrack/internal/domain/emotion"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeFaceAPI scripts DetectFaces responses.
type fakeFaceAPI struct {
	out   *rekognition.DetectFacesOutput
	err   error
	block bool // wait for ctx cancellation, simulating a hung call
	calls int
}

func (f *fakeFaceAPI) DetectFacesWithContext(ctx aws.Context, _ *rekognition.DetectFacesInput, _ ...request.Option) (*rekognition.DetectFacesOutput, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.out, f.err
}

func facesWith(emotions ...*rekognition.Emotion) *rekognition.DetectFacesOutput {
	return &rekognition.DetectFacesOutput{
		FaceDetails: []*rekognition.FaceDetail{{Emotions: emotions}},
	}
}

func rekEmotion(label string, confidence float64) *rekognition.Emotion {
	return &rekognition.Emotion{Type: aws.String(label), Confidence: aws.Float64(confidence)}
}

func TestRekognitionDetect(t *testing.T) {
	ctx := context.Background()
	frame := []byte{0xff, 0xd8, 0xff} // jpeg-ish header is enough for the fake

	Convey("Given a Rekognition-backed detector", t, func() {
		Convey("When the service reports one face with several emotions", func() {
			api := &fakeFaceAPI{out: facesWith(
				rekEmotion("SURPRISED", 85.3),
				rekEmotion("HAPPY", 10.2),
				rekEmotion("CONFUSED", 4.5),
			)}
			d, err := NewRekognitionDetector("us-east-1", WithFaceAPI(api))
			So(err, ShouldBeNil)

			res, err := d.Detect(ctx, frame)

			Convey("Then the highest-confidence emotion wins", func() {
				So(err, ShouldBeNil)
				So(res.NoFace, ShouldBeFalse)
				So(res.Emotion, ShouldEqual, emotion.Surprised)
				So(res.Confidence, ShouldAlmostEqual, 0.853, 0.0001)
			})
		})

		Convey("When two emotions tie on confidence", func() {
			api := &fakeFaceAPI{out: facesWith(
				rekEmotion("CALM", 40.0),
				rekEmotion("SAD", 40.0),
			)}
			d, err := NewRekognitionDetector("us-east-1", WithFaceAPI(api))
			So(err, ShouldBeNil)

			res, err := d.Detect(ctx, frame)

			Convey("Then the earliest candidate in service order wins", func() {
				So(err, ShouldBeNil)
				So(res.Emotion, ShouldEqual, emotion.Calm)
			})
		})

		Convey("When the service reports multiple faces", func() {
			out := &rekognition.DetectFacesOutput{
				FaceDetails: []*rekognition.FaceDetail{
					{Emotions: []*rekognition.Emotion{rekEmotion("ANGRY", 90.0)}},
					{Emotions: []*rekognition.Emotion{rekEmotion("HAPPY", 99.0)}},
				},
			}
			api := &fakeFaceAPI{out: out}
			d, err := NewRekognitionDetector("us-east-1", WithFaceAPI(api))
			So(err, ShouldBeNil)

			res, err := d.Detect(ctx, frame)

			Convey("Then only the first face is considered", func() {
				So(err, ShouldBeNil)
				So(res.Emotion, ShouldEqual, emotion.Angry)
			})
		})

		Convey("When labels outside the closed set appear", func() {
			api := &fakeFaceAPI{out: facesWith(
				rekEmotion("UNKNOWN", 95.0),
				rekEmotion("FEAR", 60.0),
			)}
			d, err := NewRekognitionDetector("us-east-1", WithFaceAPI(api))
			So(err, ShouldBeNil)

			res, err := d.Detect(ctx, frame)

			Convey("Then they are skipped as candidates", func() {
				So(err, ShouldBeNil)
				So(res.Emotion, ShouldEqual, emotion.Fear)
			})
		})

		Convey("When a face has no recognizable emotion at all", func() {
			api := &fakeFaceAPI{out: facesWith(rekEmotion("UNKNOWN", 95.0))}
			d, err := NewRekognitionDetector("us-east-1", WithFaceAPI(api))
			So(err, ShouldBeNil)

			_, err = d.Detect(ctx, frame)

			Convey("Then the response is treated as malformed", func() {
				So(errors.Is(err, ErrMalformedResponse), ShouldBeTrue)
			})
		})

		Convey("When the service reports no faces", func() {
			api := &fakeFaceAPI{out: &rekognition.DetectFacesOutput{}}
			d, err := NewRekognitionDetector("us-east-1", WithFaceAPI(api))
			So(err, ShouldBeNil)

			res, err := d.Detect(ctx, frame)

			Convey("Then the result is the no-face outcome, not an error", func() {
				So(err, ShouldBeNil)
				So(res.NoFace, ShouldBeTrue)
			})
		})

		Convey("When the service call fails", func() {
			api := &fakeFaceAPI{err: errors.New("credentials missing")}
			d, err := NewRekognitionDetector("us-east-1", WithFaceAPI(api))
			So(err, ShouldBeNil)

			res, err := d.Detect(ctx, frame)

			Convey("Then the failure is never coerced into a no-face result", func() {
				So(err, ShouldNotBeNil)
				So(res.NoFace, ShouldBeFalse)
			})
		})

		Convey("When the call hangs beyond the caller's deadline", func() {
			api := &fakeFaceAPI{block: true}
			d, err := NewRekognitionDetector("us-east-1", WithFaceAPI(api))
			So(err, ShouldBeNil)

			tctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()
			_, err = d.Detect(tctx, frame)

			Convey("Then the error is the timeout sentinel", func() {
				So(errors.Is(err, ErrTimeout), ShouldBeTrue)
			})
		})

		Convey("When the image is empty", func() {
			api := &fakeFaceAPI{}
			d, err := NewRekognitionDetector("us-east-1", WithFaceAPI(api))
			So(err, ShouldBeNil)

			_, err = d.Detect(ctx, nil)

			Convey("Then no billable call is made", func() {
				So(errors.Is(err, ErrEmptyImage), ShouldBeTrue)
				So(api.calls, ShouldEqual, 0)
			})
		})
	})
}
