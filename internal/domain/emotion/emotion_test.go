package emotion_test

import (
	"testing"

	"github.com/okian/emotrack/internal/domain/emotion"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParse(t *testing.T) {
	Convey("Given the closed emotion set", t, func() {
		Convey("When parsing every canonical label", func() {
			for _, e := range emotion.All() {
				parsed, err := emotion.Parse(e.String())

				So(err, ShouldBeNil)
				So(parsed, ShouldEqual, e)
			}
		})

		Convey("When parsing with different casing and whitespace", func() {
			parsed, err := emotion.Parse("  happy ")

			Convey("Then it should normalize to the canonical label", func() {
				So(err, ShouldBeNil)
				So(parsed, ShouldEqual, emotion.Happy)
			})
		})

		Convey("When parsing the legacy no-face spelling", func() {
			parsed, err := emotion.Parse("NO FACE")

			Convey("Then it should map to the sentinel", func() {
				So(err, ShouldBeNil)
				So(parsed, ShouldEqual, emotion.NoFace)
			})
		})

		Convey("When parsing an arbitrary string", func() {
			_, err := emotion.Parse("ECSTATIC")

			Convey("Then it should be rejected", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When parsing the empty string", func() {
			_, err := emotion.Parse("")

			So(err, ShouldNotBeNil)
		})
	})
}

func TestValid(t *testing.T) {
	Convey("Given emotion values", t, func() {
		Convey("Then every member of All is valid", func() {
			for _, e := range emotion.All() {
				So(e.Valid(), ShouldBeTrue)
			}
		})

		Convey("Then an arbitrary value is not valid", func() {
			So(emotion.Emotion("MEH").Valid(), ShouldBeFalse)
		})

		Convey("Then labels round-trip through String", func() {
			So(emotion.NoFace.String(), ShouldEqual, "NO_FACE")
			So(emotion.Happy.String(), ShouldEqual, "HAPPY")
		})
	})
}
