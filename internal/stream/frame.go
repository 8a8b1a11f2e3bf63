package stream

import (
	"image"
	"time"
)

// Frame is one captured image travelling through one distribution cycle.
//
// Frames are created exclusively by the stream. Every subscriber in a cycle
// receives the same Frame; the image must be treated as read-only and must
// not be mutated. Retaining a Frame after the handler returns is allowed
// (the image never changes), but retained frames hold their pixel buffers
// alive, so long-lived consumers should keep at most the latest one.
type Frame struct {
	// Sequence is assigned from a counter that only moves forward.
	// Identifiers are never reused for the lifetime of the stream,
	// including across stop/start cycles.
	Sequence uint64

	// CapturedAt is the wall-clock time the capture completed.
	CapturedAt time.Time

	// Image is the captured pixel data. Read-only by contract.
	Image *image.RGBA

	// Latency is how long the source took to produce the image.
	Latency time.Duration

	// TraceID correlates log entries and events about this frame.
	TraceID string
}

// Bounds returns the pixel bounds of the frame image.
func (f *Frame) Bounds() image.Rectangle {
	if f.Image == nil {
		return image.Rectangle{}
	}
	return f.Image.Bounds()
}
