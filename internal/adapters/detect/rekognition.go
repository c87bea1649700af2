package detect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/rekognition"

	"github.com/okian/emotrack/internal/domain/emotion"
	"github.com/okian/emotrack/pkg/metrics"
)

// Rekognition confidences are percentages.
const percentScale = 100.0

// faceAPI is the slice of the Rekognition client this adapter needs.
// Narrowing the dependency keeps tests free of real AWS calls.
type faceAPI interface {
	DetectFacesWithContext(ctx aws.Context, input *rekognition.DetectFacesInput, opts ...request.Option) (*rekognition.DetectFacesOutput, error)
}

// RekognitionDetector implements Detector on AWS Rekognition DetectFaces
// with the EMOTIONS attribute.
type RekognitionDetector struct {
	api faceAPI
}

// RekognitionOption applies a configuration option to the detector.
type RekognitionOption func(*RekognitionDetector)

// WithFaceAPI overrides the Rekognition client, used by tests.
func WithFaceAPI(api faceAPI) RekognitionOption {
	return func(d *RekognitionDetector) {
		if api != nil {
			d.api = api
		}
	}
}

// NewRekognitionDetector creates a detector backed by a fresh AWS session.
// Credentials come from the standard AWS chain (env, shared config, roles);
// a missing or invalid credential surfaces as a Detect error, never as a
// no-face result.
func NewRekognitionDetector(region string, opts ...RekognitionOption) (*RekognitionDetector, error) {
	d := &RekognitionDetector{}

	for _, opt := range opts {
		opt(d)
	}

	if d.api == nil {
		sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
		if err != nil {
			return nil, fmt.Errorf("create aws session: %w", err)
		}
		d.api = rekognition.New(sess)
	}
	return d, nil
}

// Detect sends the frame to Rekognition and reduces the response to a single
// label per the package's face and tie-break policy.
func (d *RekognitionDetector) Detect(ctx context.Context, image []byte) (Result, error) {
	if len(image) == 0 {
		return Result{}, ErrEmptyImage
	}

	start := time.Now()
	out, err := d.api.DetectFacesWithContext(ctx, &rekognition.DetectFacesInput{
		Image:      &rekognition.Image{Bytes: image},
		Attributes: []*string{aws.String(rekognition.AttributeEmotions)},
	})
	metrics.RecordDetectionLatency(float64(time.Since(start).Milliseconds()))

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Result{}, fmt.Errorf("rekognition detect faces: %w", ErrTimeout)
		}
		return Result{}, fmt.Errorf("rekognition detect faces: %w", err)
	}

	if len(out.FaceDetails) == 0 {
		return Result{NoFace: true}, nil
	}

	// First face in the service's returned order only.
	return pickEmotion(out.FaceDetails[0].Emotions)
}

// pickEmotion selects the highest-confidence recognizable label; ties keep
// the earliest candidate. Labels outside the closed set (Rekognition's
// UNKNOWN, for example) are skipped as candidates.
func pickEmotion(candidates []*rekognition.Emotion) (Result, error) {
	best := Result{Confidence: -1}
	for _, c := range candidates {
		if c == nil || c.Type == nil || c.Confidence == nil {
			continue
		}
		e, err := emotion.Parse(*c.Type)
		if err != nil {
			continue
		}
		if conf := *c.Confidence / percentScale; conf > best.Confidence {
			best = Result{Emotion: e, Confidence: conf}
		}
	}

	if best.Confidence < 0 {
		return Result{}, fmt.Errorf("face reported without a recognizable emotion: %w", ErrMalformedResponse)
	}
	if best.Confidence > 1 {
		best.Confidence = 1
	}
	return best, nil
}
