package sampler_test

import (
	"testing"

	"github.com/okian/emotrack/internal/domain/sampler"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNew(t *testing.T) {
	Convey("Given sampler construction", t, func() {
		Convey("When the interval is positive", func() {
			s, err := sampler.New(24)

			So(err, ShouldBeNil)
			So(s, ShouldNotBeNil)
			So(s.Interval(), ShouldEqual, 24)
		})

		Convey("When the interval is zero or negative", func() {
			for _, k := range []int{0, -1, -24} {
				_, err := sampler.New(k)
				So(err, ShouldNotBeNil)
			}
		})
	})
}

func TestKeepStride(t *testing.T) {
	Convey("Given a stride sampler", t, func() {
		Convey("When the interval is 1", func() {
			s, err := sampler.New(1)
			So(err, ShouldBeNil)

			Convey("Then every frame is kept", func() {
				for i := 0; i < 100; i++ {
					So(s.Keep(), ShouldBeTrue)
				}
			})
		})

		Convey("When the interval is K", func() {
			const k = 24

			s, err := sampler.New(k)
			So(err, ShouldBeNil)

			Convey("Then frames 1, K+1, 2K+1, ... are kept", func() {
				for i := 0; i < k*3; i++ {
					kept := s.Keep()
					So(kept, ShouldEqual, i%k == 0)
				}
			})
		})

		Convey("When feeding L frames through interval K", func() {
			cases := []struct {
				k, l, want int
			}{
				{1, 10, 10},
				{2, 10, 5},
				{3, 10, 4},
				{24, 1440, 60},
				{24, 1441, 61},
				{7, 6, 1},
				{100, 1, 1},
			}

			Convey("Then exactly ceil(L/K) frames are forwarded", func() {
				for _, c := range cases {
					s, err := sampler.New(c.k)
					So(err, ShouldBeNil)

					kept := 0
					for i := 0; i < c.l; i++ {
						if s.Keep() {
							kept++
						}
					}
					So(kept, ShouldEqual, c.want)
				}
			})
		})

		Convey("When counting observed frames", func() {
			s, err := sampler.New(5)
			So(err, ShouldBeNil)

			for i := 0; i < 17; i++ {
				s.Keep()
			}

			Convey("Then Seen reflects every frame, kept or dropped", func() {
				So(s.Seen(), ShouldEqual, 17)
			})
		})
	})
}
