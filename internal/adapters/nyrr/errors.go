package nyrr

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrRetriesExhausted = errors.New("retries exhausted")
	ErrHTTPStatus       = errors.New("http error status")
	ErrDecode           = errors.New("malformed response")
)

// StatusError is returned for 4xx/5xx responses. They are never retried.
type StatusError struct {
	Endpoint string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.Code, e.Body)
}

// Is lets errors.Is(err, ErrHTTPStatus) match any StatusError.
func (e *StatusError) Is(target error) bool {
	return target == ErrHTTPStatus
}
