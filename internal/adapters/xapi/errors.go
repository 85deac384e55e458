package xapi

import "errors"

// Sentinel kinds for external lookup errors.
var (
	// ErrLookupFailed means no numeric id could be determined for a handle,
	// either because the call failed or no acceptable key was found.
	ErrLookupFailed = errors.New("identity lookup failed")
	// ErrFetchFailed means the recent-activity call failed outright. Callers
	// score it as zero matches but can tell it apart from a true zero.
	ErrFetchFailed = errors.New("reply fetch failed")
)
