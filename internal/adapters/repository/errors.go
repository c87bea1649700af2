package repository

import "errors"

// Sentinel kinds for store errors.
var (
	// ErrConfirmationRequired guards ClearAll against accidental invocation.
	ErrConfirmationRequired = errors.New("clear all requires explicit confirmation")

	// ErrInvalidDays rejects non-positive trailing-window sizes.
	ErrInvalidDays = errors.New("days must be >= 1")

	// ErrUnknownFormat rejects export formats outside csv/json.
	ErrUnknownFormat = errors.New("unknown export format")

	// ErrInvalidEmotion rejects writes carrying labels outside the closed set.
	ErrInvalidEmotion = errors.New("emotion label outside the closed set")
)
