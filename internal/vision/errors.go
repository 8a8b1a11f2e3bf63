package vision

import "errors"

var (
	// ErrNoTextReader is returned by ReadRegion when no text reader has
	// been configured.
	ErrNoTextReader = errors.New("vision: no text reader configured")

	// ErrNoFrame is returned when an operation needs a cached frame but
	// the service has not received one yet.
	ErrNoFrame = errors.New("vision: no frame available")
)
