package detect

import "errors"

// Sentinel kinds for adapter failures.
var (
	ErrTimeout           = errors.New("detection timed out")
	ErrEmptyImage        = errors.New("empty image")
	ErrMalformedResponse = errors.New("malformed detection response")
)
