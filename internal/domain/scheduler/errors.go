package scheduler

import "errors"

// Sentinel kinds for scheduler state violations. These are rejected
// outcomes reported to the caller, never crashes.
var (
	// ErrSessionActive means an open was requested while a window is
	// already open or still being scored.
	ErrSessionActive = errors.New("session already active")
	// ErrNoActiveSession means a close was requested with no open window.
	ErrNoActiveSession = errors.New("no active session")
	// ErrInvalidOpenTime means a configured open instant could not be parsed.
	ErrInvalidOpenTime = errors.New("invalid open time")
)
