package stream

import "errors"

// Domain-specific errors for stream operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrAlreadyStarted is returned when Start is called on a running stream.
	ErrAlreadyStarted = errors.New("stream: already started")

	// ErrInvalidRate is returned when Start is called with a target rate
	// below one frame per second.
	ErrInvalidRate = errors.New("stream: invalid target rate")

	// ErrCaptureExhausted is returned through Err() when consecutive capture
	// attempts fail beyond the configured retry limit. The capture loop halts
	// and Done() is closed; the stream delivers no further frames until it is
	// stopped and restarted.
	ErrCaptureExhausted = errors.New("stream: capture retries exhausted")
)
