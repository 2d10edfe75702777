package service

import "errors"

// Sentinel kinds for pipeline errors.
var (
	// ErrCursorStalled is returned when a non-empty finisher page holds no
	// place beyond the cursor, which would otherwise loop forever.
	ErrCursorStalled = errors.New("finisher cursor did not advance")
	ErrUnknownStage  = errors.New("unknown stage")
)
