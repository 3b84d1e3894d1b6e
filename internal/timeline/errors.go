package timeline

import "errors"

// Error taxonomy surfaced by the service. Handlers map these to HTTP
// statuses; everything else is an internal failure.
var (
	// ErrNotFound means a referenced user or username does not exist.
	ErrNotFound = errors.New("timeline: not found")

	// ErrInvalidInput means the request payload failed a presence check,
	// e.g. an empty post text.
	ErrInvalidInput = errors.New("timeline: invalid input")

	// ErrConflict means a unique identifier collided, e.g. a username that
	// is already registered (seen during external sync replay).
	ErrConflict = errors.New("timeline: conflict")
)
