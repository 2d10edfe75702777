package config_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/okian/finishline/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.DataDir, convey.ShouldEqual, "data")
				convey.So(cfg.PageSize, convey.ShouldEqual, 100)
				convey.So(cfg.Stages, convey.ShouldResemble, config.New().Stages)
				convey.So(cfg.Denylist, convey.ShouldResemble, config.New().Denylist)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("FINISHLINE_DATA_DIR", "/tmp/nyrr")
			_ = os.Setenv("FINISHLINE_MAX_ATTEMPTS", "3")
			_ = os.Setenv("FINISHLINE_YEAR_FROM", "2024")
			_ = os.Setenv("FINISHLINE_STAGES", "results, finishers")
			_ = os.Setenv("FINISHLINE_DENYLIST", "A, B (X1);C (X2)")
			_ = os.Setenv("FINISHLINE_PUBLISH__BUCKET", "race-data")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.DataDir, convey.ShouldEqual, "/tmp/nyrr")
				convey.So(cfg.MaxAttempts, convey.ShouldEqual, 3)
				convey.So(cfg.YearFrom, convey.ShouldEqual, 2024)
				convey.So(cfg.Stages, convey.ShouldResemble, []string{"results", "finishers"})
				convey.So(cfg.Denylist, convey.ShouldResemble, []string{"A, B (X1)", "C (X2)"})
				convey.So(cfg.Publish.Bucket, convey.ShouldEqual, "race-data")
				convey.So(cfg.Publish.Prefix, convey.ShouldEqual, "clean/")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
data_dir: /srv/nyrr
request_delay: 250ms
request_timeout: 5s
page_size: 50
stages:
  - events
  - races
denylist: []
publish:
  bucket: race-data
  retries: 5
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("FINISHLINE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.DataDir, convey.ShouldEqual, "/srv/nyrr")
				convey.So(cfg.RequestDelay, convey.ShouldEqual, 250*time.Millisecond)
				convey.So(cfg.RequestTimeout, convey.ShouldEqual, 5*time.Second)
				convey.So(cfg.PageSize, convey.ShouldEqual, 50)
				convey.So(cfg.Stages, convey.ShouldResemble, []string{"events", "races"})
				convey.So(cfg.Denylist, convey.ShouldBeEmpty)
				convey.So(cfg.Publish.Bucket, convey.ShouldEqual, "race-data")
				convey.So(cfg.Publish.Retries, convey.ShouldEqual, 5)
				convey.So(cfg.Publish.Timeout, convey.ShouldEqual, 30*time.Second)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
data_dir: /srv/nyrr
page_size: 50
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("FINISHLINE_CONFIG", tmpFile)
			_ = os.Setenv("FINISHLINE_PAGE_SIZE", "25")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.DataDir, convey.ShouldEqual, "/srv/nyrr") // From file
				convey.So(cfg.PageSize, convey.ShouldEqual, 25)         // Overridden by env
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("FINISHLINE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("FINISHLINE_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an out-of-range page size", func() {
			_ = os.Setenv("FINISHLINE_PAGE_SIZE", "1000")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "page_size")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"FINISHLINE_CONFIG",
		"FINISHLINE_DATA_DIR",
		"FINISHLINE_MAX_ATTEMPTS",
		"FINISHLINE_YEAR_FROM",
		"FINISHLINE_STAGES",
		"FINISHLINE_DENYLIST",
		"FINISHLINE_PAGE_SIZE",
		"FINISHLINE_PUBLISH__BUCKET",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "finishline-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
