package domain

import "errors"

// Sentinel errors for cross-package error classification.
// The provider adapter wraps these so the executor and the HTTP layer
// can handle error categories uniformly without knowing which endpoint
// failed.
//
//	return fmt.Errorf("sync event: %w", domain.ErrUnauthorized)
var (
	// ErrUnauthorized indicates the caller's credentials were rejected.
	// It reflects the session, not the action's outcome, so the
	// executor propagates it without recording a failed log entry.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTransport indicates the provider could not be reached
	// (connection failure, timeout).
	ErrTransport = errors.New("provider unreachable")

	// ErrProvider indicates the provider answered with a non-success
	// status and a message.
	ErrProvider = errors.New("provider error")

	// ErrDecode indicates a malformed response body or stream frame.
	ErrDecode = errors.New("malformed provider payload")

	// ErrRateLimited indicates the provider throttled the request.
	ErrRateLimited = errors.New("rate limited")
)
