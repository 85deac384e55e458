package repository

import "errors"

// Sentinel kinds for registry errors.
var (
	// ErrNotRegistered means the member has no registry entry at all.
	ErrNotRegistered = errors.New("member not registered")
	// ErrResolutionFailed means the registry could not obtain a numeric id
	// for a registered member. It wraps the underlying lookup error.
	ErrResolutionFailed = errors.New("numeric id resolution failed")
)
