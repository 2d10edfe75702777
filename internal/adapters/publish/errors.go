package publish

import "errors"

// Sentinel kinds for publication errors.
var (
	ErrUploadFailed = errors.New("upload failed")
	ErrNoBucket     = errors.New("no bucket configured")
)
