package ledger

import "errors"

// Boundary errors. Callers recover from all of these by rendering a message
// and returning to a safe menu state; none is fatal to the process.
var (
	// ErrInvalidToken is returned when redeeming an unknown or used token.
	ErrInvalidToken = errors.New("ledger: invalid or used token")
	// ErrNotFound is returned for operations on a missing rate or channel.
	ErrNotFound = errors.New("ledger: not found")
	// ErrChannelNotConfigured is returned when a send targets a channel type
	// with no active channel registered.
	ErrChannelNotConfigured = errors.New("ledger: channel not configured")
	// ErrValidation is returned for non-positive cost or duration values.
	ErrValidation = errors.New("ledger: validation failed")
)
