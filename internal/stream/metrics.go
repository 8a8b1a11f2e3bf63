package stream

import (
	"sync"
	"time"
)

// processingWindow is the number of recent cycles averaged for
// Metrics.AverageProcessing.
const processingWindow = 64

// Metrics is a point-in-time snapshot of stream health counters.
//
// Snapshots are taken without touching the capture path, so reading
// metrics never delays frame delivery.
type Metrics struct {
	// Frames is the total number of frames distributed.
	Frames uint64

	// DroppedFrames counts scheduled ticks that were skipped because the
	// previous cycle was still running when their deadline passed.
	DroppedFrames uint64

	// SlowDeliveries counts handler invocations that exceeded the
	// configured per-subscriber budget.
	SlowDeliveries uint64

	// AverageProcessing is the mean distribution duration (all handlers,
	// one cycle) over the most recent cycles.
	AverageProcessing time.Duration

	// LastCaptureDuration is how long the most recent capture took.
	LastCaptureDuration time.Duration

	// MemoryEstimate is the approximate size in bytes of the most recent
	// frame's pixel buffer.
	MemoryEstimate uint64

	// Subscribers is the number of active subscriptions.
	Subscribers int
}

// counters accumulates stream metrics. The capture loop is the only writer;
// snapshots copy under a short-held mutex so readers never block the loop
// for longer than a field copy.
type counters struct {
	mu             sync.Mutex
	frames         uint64
	dropped        uint64
	slow           uint64
	lastCapture    time.Duration
	memoryEstimate uint64

	// Ring of recent per-cycle distribution durations.
	processing [processingWindow]time.Duration
	procCount  int
	procNext   int
}

func (c *counters) recordCycle(capture, processing time.Duration, memBytes uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.frames++
	c.lastCapture = capture
	c.memoryEstimate = memBytes

	c.processing[c.procNext] = processing
	c.procNext = (c.procNext + 1) % processingWindow
	if c.procCount < processingWindow {
		c.procCount++
	}
}

func (c *counters) addDropped(n uint64) {
	c.mu.Lock()
	c.dropped += n
	c.mu.Unlock()
}

func (c *counters) addSlow() {
	c.mu.Lock()
	c.slow++
	c.mu.Unlock()
}

func (c *counters) snapshot() Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	var avg time.Duration
	if c.procCount > 0 {
		var sum time.Duration
		for i := 0; i < c.procCount; i++ {
			sum += c.processing[i]
		}
		avg = sum / time.Duration(c.procCount)
	}

	return Metrics{
		Frames:              c.frames,
		DroppedFrames:       c.dropped,
		SlowDeliveries:      c.slow,
		AverageProcessing:   avg,
		LastCaptureDuration: c.lastCapture,
		MemoryEstimate:      c.memoryEstimate,
	}
}
