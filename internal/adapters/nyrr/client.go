// Package nyrr is a client for the NYRR race-results API.
//
// Every call is a JSON POST. Transport failures are retried with a
// quadratic backoff; HTTP error statuses and malformed bodies are not.
package nyrr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzhttp"

	"github.com/okian/finishline/internal/domain/types"
	"github.com/okian/finishline/pkg/logger"
	"github.com/okian/finishline/pkg/metrics"
)

// Default client settings.
const (
	defaultTimeout     = 10 * time.Second
	defaultMaxAttempts = 5
	defaultPageSize    = 100
	apiPrefix          = "/api/v2/"
	maxErrorBody       = 512
)

// Client issues requests against the results API.
type Client struct {
	baseURL     string
	headers     http.Header
	transport   http.RoundTripper
	timeout     time.Duration
	maxAttempts int
	pageSize    int
	gzip        bool
	sleep       types.Sleeper
	logger      logger.Logger

	http *http.Client
}

// New constructs a Client for baseURL, e.g. "https://rmsprodapi.nyrr.org".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		headers:     http.Header{},
		transport:   http.DefaultTransport,
		timeout:     defaultTimeout,
		maxAttempts: defaultMaxAttempts,
		pageSize:    defaultPageSize,
		gzip:        true,
		sleep:       types.Sleep,
	}
	c.headers.Set("Content-Type", "application/json")
	c.headers.Set("Accept", "application/json")

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = logger.Named("nyrr")
	}

	rt := c.transport
	if c.gzip {
		rt = gzhttp.Transport(rt)
	}
	c.http = &http.Client{Transport: rt, Timeout: c.timeout}
	return c
}

// transientError marks failures that happened before a status was received.
type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// post sends payload to endpoint and decodes the response into out.
// Attempt n+1 waits n² seconds after attempt n failed in transport.
func (c *Client) post(ctx context.Context, endpoint string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", endpoint, err)
	}
	url := c.baseURL + apiPrefix + endpoint

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			wait := time.Duration((attempt-1)*(attempt-1)) * time.Second
			metrics.RecordAPIRetry(endpoint)
			c.logger.Warn(ctx, "request failed, retrying",
				logger.String("endpoint", endpoint),
				logger.Int("attempt", attempt),
				logger.Duration("wait", wait),
				logger.Error(lastErr))
			if err := c.sleep(ctx, wait); err != nil {
				return err
			}
		}

		data, err := c.do(ctx, endpoint, url, body)
		if err == nil {
			return c.decode(endpoint, data, out)
		}

		var te *transientError
		if !errors.As(err, &te) || ctx.Err() != nil {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("%w: %s after %d attempts: %w", ErrRetriesExhausted, endpoint, c.maxAttempts, lastErr)
}

// do performs one attempt and returns the response body on 2xx/3xx.
func (c *Client) do(ctx context.Context, endpoint, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header = c.headers.Clone()

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordAPIRequest(endpoint, metrics.OutcomeTransient, time.Since(start))
		return nil, &transientError{err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Debug(ctx, "failed to close response body", logger.Error(err))
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordAPIRequest(endpoint, metrics.OutcomeTransient, time.Since(start))
		return nil, &transientError{err: fmt.Errorf("read %s response: %w", endpoint, err)}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		metrics.RecordAPIRequest(endpoint, metrics.OutcomeStatus, time.Since(start))
		if len(data) > maxErrorBody {
			data = data[:maxErrorBody]
		}
		return nil, &StatusError{Endpoint: endpoint, Code: resp.StatusCode, Body: string(data)}
	}

	metrics.RecordAPIRequest(endpoint, metrics.OutcomeOK, time.Since(start))
	return data, nil
}

func (c *Client) decode(endpoint string, data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDecode, endpoint, err)
	}
	return nil
}
