package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/finishline/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have the collector defaults", func() {
			convey.So(cfg.APIBaseURL, convey.ShouldEqual, "https://rmsprodapi.nyrr.org")
			convey.So(cfg.RequestTimeout, convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.MaxAttempts, convey.ShouldEqual, 5)
			convey.So(cfg.RequestDelay, convey.ShouldEqual, 500*time.Millisecond)
			convey.So(cfg.PageSize, convey.ShouldEqual, 100)
			convey.So(cfg.YearFrom, convey.ShouldEqual, 2025)
			convey.So(cfg.YearTo, convey.ShouldEqual, 1970)
			convey.So(cfg.Stages, convey.ShouldResemble, []string{"events", "races", "results", "finishers"})
			convey.So(len(cfg.Denylist), convey.ShouldEqual, 1)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with invalid values", t, func() {
		cases := map[string]func(*config.Config){
			"empty data dir":   func(c *config.Config) { c.DataDir = "" },
			"zero attempts":    func(c *config.Config) { c.MaxAttempts = 0 },
			"oversized page":   func(c *config.Config) { c.PageSize = 500 },
			"inverted years":   func(c *config.Config) { c.YearFrom, c.YearTo = 1970, 2025 },
			"unknown stage":    func(c *config.Config) { c.Stages = []string{"events", "scrape"} },
			"negative delay":   func(c *config.Config) { c.RequestDelay = -time.Second },
			"no timeout":       func(c *config.Config) { c.RequestTimeout = 0 },
			"missing base url": func(c *config.Config) { c.APIBaseURL = "" },
		}

		for name, mutate := range cases {
			convey.Convey("When validating with "+name, func() {
				cfg := config.New()
				mutate(cfg)
				err := cfg.Validate()

				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}
