package service

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrNotStarted is returned when operations run before Start.
	ErrNotStarted = errors.New("service not started")

	// ErrSessionActive rejects a second concurrent tracking session.
	ErrSessionActive = errors.New("a tracking session is already active")

	// ErrNoActiveSession is returned by StopTracking with nothing to stop.
	ErrNoActiveSession = errors.New("no active tracking session")

	// ErrMissingStore is returned by Start when no record store is wired.
	ErrMissingStore = errors.New("no record store configured")

	// ErrMissingDetector is returned by Start when no detector is wired.
	ErrMissingDetector = errors.New("no detector configured")
)
