// Package api provides the HTTP Request Dispatcher (spec component H): a
// thin transport front door that maps externally-named wire operations onto
// internal/engine calls, parsing and validating parameters with no business
// logic of its own.
package api

import "errors"

// Dispatcher-level errors. These never reach the client directly; they are
// translated to the same APIError envelope as engine errors, with their own
// codes since the engine never sees an unknown operation name or a
// malformed parameter.
var (
	// ErrUnknownOperation indicates the wire operation name has no handler.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrMissingParam indicates a required wire parameter was absent.
	ErrMissingParam = errors.New("missing required parameter")

	// ErrInvalidParam indicates a wire parameter failed to parse or is out
	// of its allowed enumeration.
	ErrInvalidParam = errors.New("invalid parameter")
)
