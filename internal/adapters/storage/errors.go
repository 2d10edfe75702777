package storage

import "errors"

// Sentinel kinds for data tree errors.
var (
	ErrNotFound   = errors.New("file not found")
	ErrBadLayout  = errors.New("unexpected file in data tree")
	ErrReadRecord = errors.New("read records")
)
