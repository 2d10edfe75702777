package dedupe_test

import (
	"context"
	"testing"

	dedupe "github.com/okian/finishline/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPlaceDeduper(t *testing.T) {
	Convey("Given a new place deduper", t, func() {
		ctx := context.Background()

		Convey("When creating a deduper with default options", func() {
			d := dedupe.NewPlaceDeduper()

			Convey("Then it should be empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
				So(d.Highest(), ShouldEqual, 0)
			})
		})

		Convey("When creating a deduper with a capacity", func() {
			d := dedupe.NewPlaceDeduper(dedupe.WithCapacity(60_000))

			Convey("Then it should be empty", func() {
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When recording places", func() {
			d := dedupe.NewPlaceDeduper()

			Convey("And the place is new", func() {
				seen := d.SeenAndRecord(ctx, 1)

				Convey("Then it should return false and record the place", func() {
					So(seen, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 1)
					So(d.Highest(), ShouldEqual, 1)
				})
			})

			Convey("And the place was already seen", func() {
				d.SeenAndRecord(ctx, 100)
				seen := d.SeenAndRecord(ctx, 100)

				Convey("Then it should return true", func() {
					So(seen, ShouldBeTrue)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And places arrive out of order", func() {
				for _, p := range []int{3, 1, 2} {
					d.SeenAndRecord(ctx, p)
				}

				Convey("Then the highest place is tracked", func() {
					So(d.Highest(), ShouldEqual, 3)
					So(d.Size(), ShouldEqual, 3)
				})
			})
		})

		Convey("When resetting between events", func() {
			d := dedupe.NewPlaceDeduper()
			d.SeenAndRecord(ctx, 1)
			d.SeenAndRecord(ctx, 2)
			d.Reset()

			Convey("Then previous places are forgotten", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.Highest(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, 1), ShouldBeFalse)
			})

			Convey("Then resetting reuses the existing set", func() {
				allocs := testing.AllocsPerRun(100, d.Reset)
				So(allocs, ShouldEqual, 0)
			})
		})
	})
}
