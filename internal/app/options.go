package service

import (
	"time"

	"github.com/okian/finishline/internal/domain/dedupe"
	"github.com/okian/finishline/internal/domain/types"
	"github.com/okian/finishline/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithYears sets the enumeration range, walked from 'from' down to 'to'.
func WithYears(from, to int) Option {
	return func(s *Service) {
		if from >= to {
			s.yearFrom = from
			s.yearTo = to
		}
	}
}

// WithRequestDelay sets the pause between consecutive API requests.
func WithRequestDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// WithDenylist sets events never collected. Entries match either the
// result file name "eventName (eventCode)" or a bare event code.
func WithDenylist(entries []string) Option {
	return func(s *Service) {
		s.denylist = make(map[string]struct{}, len(entries))
		for _, e := range entries {
			s.denylist[e] = struct{}{}
		}
	}
}

// WithUploader enables the publish stage.
func WithUploader(u Uploader) Option {
	return func(s *Service) {
		s.uploader = u
	}
}

// WithSleeper replaces the pacing sleeper.
func WithSleeper(sl types.Sleeper) Option {
	return func(s *Service) {
		if sl != nil {
			s.sleep = sl
		}
	}
}

// WithDeduper replaces the per-event place de-duplicator.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *Service) {
		if d != nil {
			s.deduper = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
