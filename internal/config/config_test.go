package config_test

import (
	"testing"
	"time"

	"github.com/okian/emotrack/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8090")
			convey.So(cfg.SampleInterval, convey.ShouldEqual, 24)
			convey.So(cfg.BatchSize, convey.ShouldEqual, 60)
			convey.So(cfg.PersistNoFace, convey.ShouldBeTrue)
			convey.So(cfg.DetectionTimeout, convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverSQLite)
			convey.So(cfg.SourceFPS, convey.ShouldEqual, 24)
		})
	})
}
