package services

import "errors"

// Sentinel errors returned by the service layer. Handlers match them with
// errors.Is to pick a response status.
var (
	// ErrNotFound covers both a missing entity and one owned by another
	// user; the two cases are indistinguishable to the caller.
	ErrNotFound = errors.New("not found")

	// ErrValidation marks a malformed patch or anchor. The operation was
	// never attempted.
	ErrValidation = errors.New("validation failed")
)
