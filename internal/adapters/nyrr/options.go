package nyrr

import (
	"net/http"
	"time"

	"github.com/okian/finishline/internal/domain/types"
	"github.com/okian/finishline/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithUserAgent sets the user-agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.headers.Set("User-Agent", ua)
		}
	}
}

// WithOrigin sets the origin header the API expects from its own site.
func WithOrigin(origin string) Option {
	return func(c *Client) {
		if origin != "" {
			c.headers.Set("Origin", origin)
		}
	}
}

// WithReferer sets the referer header the API expects from its own site.
func WithReferer(referer string) Option {
	return func(c *Client) {
		if referer != "" {
			c.headers.Set("Referer", referer)
		}
	}
}

// WithTimeout bounds a single request attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxAttempts bounds attempts per request on transport failures.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithPageSize sets the listing page size.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithGzip toggles compressed responses.
func WithGzip(enabled bool) Option {
	return func(c *Client) {
		c.gzip = enabled
	}
}

// WithTransport replaces the base round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.transport = rt
		}
	}
}

// WithSleeper replaces the backoff sleeper.
func WithSleeper(s types.Sleeper) Option {
	return func(c *Client) {
		if s != nil {
			c.sleep = s
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}
