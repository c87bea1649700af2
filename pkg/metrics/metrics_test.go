package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a metrics manager", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("capture"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording pipeline metrics", func() {
			RecordFrameSeen()
			RecordFrameSampled()
			RecordDetection(OutcomeDetected)
			RecordDetection(OutcomeNoFace)
			RecordDetection(OutcomeFailed)
			RecordDetectionLatency(12.5)
			UpdateBufferSize(3)
			RecordBatchFlush(60)
			RecordFlushError()
			RecordObservationsWritten(60)
			RecordStoreWriteLatency(4.2)
			RecordStoreWriteError()
			UpdateStoreRecords(120)
			UpdateActiveSessions(1)
			RecordHTTPRequest("summary", "GET", "200")
			RecordHTTPRequestDuration("summary", "GET", "200", 1.5)
			RecordComponentError("detect", "timeout")
			UpdateSystemMemoryUsage(1 << 20)
			UpdateSystemGoroutineCount(10)
			RecordSystemGCPauseTime(0.2)

			Convey("Then the registry should expose collectors", func() {
				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})
	})
}
