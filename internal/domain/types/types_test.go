package types_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/finishline/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSleep(t *testing.T) {
	Convey("Given the wall-clock sleeper", t, func() {
		Convey("When sleeping a short duration", func() {
			start := time.Now()
			err := types.Sleep(context.Background(), 20*time.Millisecond)

			Convey("Then it returns after at least that long", func() {
				So(err, ShouldBeNil)
				So(time.Since(start), ShouldBeGreaterThanOrEqualTo, 20*time.Millisecond)
			})
		})

		Convey("When the duration is zero", func() {
			err := types.Sleep(context.Background(), 0)

			Convey("Then it returns immediately", func() {
				So(err, ShouldBeNil)
			})
		})

		Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			err := types.Sleep(ctx, time.Hour)

			Convey("Then it returns the context error", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}
