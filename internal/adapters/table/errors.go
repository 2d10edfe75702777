package table

import "errors"

// Sentinel kinds for table encoding errors.
var (
	ErrMissingColumn = errors.New("missing column")
	ErrBadRow        = errors.New("malformed row")
)
