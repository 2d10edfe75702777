// Package config defines collector configuration structures and loading hooks.
//
// Conventions:
// - Defaults live in New(); Load layers file and env on top of them.
// - All time values are time.Duration and accept Go duration strings ("500ms").
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"time"
)

// Stage names in their natural pipeline order.
const (
	StageEvents    = "events"
	StageRaces     = "races"
	StageResults   = "results"
	StageFinishers = "finishers"
	StagePublish   = "publish"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogJSON switches log output to JSON lines.
	LogJSON bool `koanf:"log_json"`

	// DataDir is the root of the raw/ and clean/ trees.
	DataDir string `koanf:"data_dir"`

	// APIBaseURL is the results API origin, without a trailing slash.
	APIBaseURL string `koanf:"api_base_url"`

	// Header values the API checks before serving a request.
	UserAgent string `koanf:"user_agent"`
	Origin    string `koanf:"origin"`
	Referer   string `koanf:"referer"`

	// RequestTimeout bounds a single HTTP attempt.
	RequestTimeout time.Duration `koanf:"request_timeout"`
	// MaxAttempts bounds attempts per request on transport failures.
	MaxAttempts int `koanf:"max_attempts"`
	// RequestDelay is the pause between consecutive API requests.
	RequestDelay time.Duration `koanf:"request_delay"`
	// PageSize is the listing page size; the API caps it at 100.
	PageSize int `koanf:"page_size"`
	// AcceptGzip asks the API for compressed responses.
	AcceptGzip bool `koanf:"accept_gzip"`

	// YearFrom and YearTo bound event enumeration, walked from YearFrom down.
	YearFrom int `koanf:"year_from"`
	YearTo   int `koanf:"year_to"`

	// Denylist holds events known to have no published results, either as
	// result file names ("eventName (eventCode)") or bare event codes.
	Denylist []string `koanf:"denylist"`

	// Stages lists the stages to run, in order.
	Stages []string `koanf:"stages"`

	// AtomicWrites stages per-event files under a temporary name and renames
	// them into place once complete.
	AtomicWrites bool `koanf:"atomic_writes"`

	Metrics MetricsConfig `koanf:"metrics"`
	Publish PublishConfig `koanf:"publish"`
}

// MetricsConfig configures the end-of-run Pushgateway push.
type MetricsConfig struct {
	PushURL string `koanf:"push_url"`
	Job     string `koanf:"job"`
}

// PublishConfig configures uploading the clean tables to S3.
type PublishConfig struct {
	Bucket  string        `koanf:"bucket"`
	Prefix  string        `koanf:"prefix"`
	Region  string        `koanf:"region"`
	Retries int           `koanf:"retries"`
	Timeout time.Duration `koanf:"timeout"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		DataDir:        "data",
		APIBaseURL:     "https://rmsprodapi.nyrr.org",
		UserAgent:      "Mozilla/5.0",
		Origin:         "https://results.nyrr.org",
		Referer:        "https://results.nyrr.org/",
		RequestTimeout: 10 * time.Second,
		MaxAttempts:    5,
		RequestDelay:   500 * time.Millisecond,
		PageSize:       100,
		AcceptGzip:     true,
		YearFrom:       2025,
		YearTo:         1970,
		Denylist: []string{
			"2020 TCS New York City Marathon (M2020)",
		},
		Stages:       []string{StageEvents, StageRaces, StageResults, StageFinishers},
		AtomicWrites: true,
		Metrics: MetricsConfig{
			Job: "finishline",
		},
		Publish: PublishConfig{
			Prefix:  "clean/",
			Retries: 3,
			Timeout: 30 * time.Second,
		},
	}
}

// Validate reports the first invalid value, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.DataDir == "":
		return invalid("data_dir must not be empty")
	case c.APIBaseURL == "":
		return invalid("api_base_url must not be empty")
	case c.MaxAttempts < 1:
		return invalid("max_attempts must be at least 1")
	case c.PageSize < 1 || c.PageSize > 100:
		return invalid("page_size must be within 1..100")
	case c.RequestTimeout <= 0:
		return invalid("request_timeout must be positive")
	case c.RequestDelay < 0:
		return invalid("request_delay must not be negative")
	case c.YearFrom < c.YearTo:
		return invalid("year_from must not be before year_to")
	}
	for _, s := range c.Stages {
		switch s {
		case StageEvents, StageRaces, StageResults, StageFinishers, StagePublish:
		default:
			return invalid("unknown stage " + s)
		}
	}
	return nil
}
