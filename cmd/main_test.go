package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"

	"github.com/okian/finishline/internal/config"
	"github.com/okian/finishline/internal/fakeapi"
	"github.com/okian/finishline/pkg/logger"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

// fakeResultsAPI serves one 2024 event, "2024 Mini 5K/10K" (24EV1), with
// 150 finishers.
func fakeResultsAPI() (*httptest.Server, *fakeapi.Handler) {
	h := fakeapi.NewHandler(&fakeapi.Config{
		YearFrom:          2024,
		YearTo:            2024,
		EventsPerYear:     1,
		FinishersPerEvent: 150,
		Seed:              1,
	})
	return httptest.NewServer(h), h
}

func testConfig(baseURL string) *config.Config {
	cfg := config.New()
	cfg.APIBaseURL = baseURL
	cfg.YearFrom = 2024
	cfg.YearTo = 2023
	cfg.RequestDelay = 0
	cfg.DataDir = "data"
	return cfg
}

func TestRun(t *testing.T) {
	convey.Convey("Given a fake results API and an empty data tree", t, func() {
		srv, api := fakeResultsAPI()
		defer srv.Close()

		fsys := afero.NewMemMapFs()
		cfg := testConfig(srv.URL)
		ctx := context.Background()

		convey.Convey("When running the default stages", func() {
			err := run(ctx, cfg, fsys)

			convey.Convey("Then every stage leaves its output", func() {
				convey.So(err, convey.ShouldBeNil)
				for _, p := range []string{
					"data/raw/races/2024.json",
					"data/raw/races/2023.json",
					"data/clean/races.csv",
					"data/raw/race_results/2024/2024 Mini 5K-10K (24EV1).json",
					"data/clean/race_results.parquet",
				} {
					ok, _ := afero.Exists(fsys, p)
					convey.So(ok, convey.ShouldBeTrue)
				}
			})

			convey.Convey("Then the count call and three pages were requested", func() {
				convey.So(api.Stats().FinisherCalls, convey.ShouldEqual, int64(4))
			})

			convey.Convey("Then re-running result collection makes no finisher requests", func() {
				before := api.Stats().FinisherCalls
				cfg.Stages = []string{config.StageResults, config.StageFinishers}
				convey.So(run(ctx, cfg, fsys), convey.ShouldBeNil)
				convey.So(api.Stats().FinisherCalls, convey.ShouldEqual, before)
			})
		})

		convey.Convey("When the event is denylisted", func() {
			cfg.Denylist = []string{"2024 Mini 5K-10K (24EV1)"}
			err := run(ctx, cfg, fsys)

			convey.Convey("Then no finisher request is made", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(api.Stats().FinisherCalls, convey.ShouldEqual, int64(0))
			})
		})

		convey.Convey("When publish is requested without a bucket", func() {
			cfg.Stages = []string{config.StageEvents, config.StageRaces, config.StagePublish}
			convey.So(run(ctx, cfg, fsys), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given an API that rejects requests", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		err := run(context.Background(), testConfig(srv.URL), afero.NewMemMapFs())

		convey.Convey("Then the run fails on the first stage", func() {
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "stage events")
			convey.So(err.Error(), convey.ShouldContainSubstring, "403")
		})
	})
}
