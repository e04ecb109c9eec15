// Sentinel errors shared by the registry's callers.  The HTTP layer maps
// these to status codes with errors.Is; nothing here is retried.
package registry

import "errors"

var (
	// ErrNotFound is returned when a tenant code or id has no row.
	ErrNotFound = errors.New("tenant not found")

	// ErrConflict is returned when a derived database identifier is
	// already taken.  Unlike code collisions this is not retried; the
	// caller must choose a different name or code.
	ErrConflict = errors.New("tenant already exists")

	// ErrInvalidInput is returned when a display name sanitises to
	// nothing, or a supplied tenant code is malformed.
	ErrInvalidInput = errors.New("invalid tenant input")

	// ErrCodeSpaceExhausted is returned when the bounded redraw loop
	// cannot find a free tenant code.
	ErrCodeSpaceExhausted = errors.New("tenant code space exhausted")
)
