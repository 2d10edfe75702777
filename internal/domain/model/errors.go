package model

import "errors"

// Sentinel kinds for record decoding errors.
var (
	ErrDecode       = errors.New("decode record")
	ErrMissingField = errors.New("missing required field")
	ErrBadTimestamp = errors.New("unparsable startDateTime")
)
