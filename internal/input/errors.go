package input

import "errors"

var (
	// ErrOutOfBounds is returned when a target point lies outside the
	// configured safety rectangle. The driver is never invoked for
	// rejected targets.
	ErrOutOfBounds = errors.New("input: target outside safety bounds")
)
