package publish

import (
	"time"

	"github.com/okian/finishline/internal/domain/types"
	"github.com/okian/finishline/pkg/logger"
)

// Option applies a configuration option to the Uploader.
type Option func(*Uploader)

// WithPrefix sets the key prefix, e.g. "clean/".
func WithPrefix(prefix string) Option {
	return func(u *Uploader) {
		u.prefix = prefix
	}
}

// WithRetries bounds attempts per object.
func WithRetries(n int) Option {
	return func(u *Uploader) {
		if n > 0 {
			u.retries = n
		}
	}
}

// WithTimeout bounds a single PutObject call.
func WithTimeout(d time.Duration) Option {
	return func(u *Uploader) {
		if d > 0 {
			u.timeout = d
		}
	}
}

// WithSleeper replaces the backoff sleeper.
func WithSleeper(s types.Sleeper) Option {
	return func(u *Uploader) {
		if s != nil {
			u.sleep = s
		}
	}
}

// WithLogger sets a custom logger for the uploader.
func WithLogger(l logger.Logger) Option {
	return func(u *Uploader) {
		if l != nil {
			u.logger = l
		}
	}
}
