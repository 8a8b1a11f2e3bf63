package telemetry

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nerrad567/vigil-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/vigil-core/internal/stream"
)

// fakeWriter collects written samples.
type fakeWriter struct {
	mu      sync.Mutex
	samples []influxdb.StreamSample
}

func (w *fakeWriter) WriteStreamSample(s influxdb.StreamSample) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.samples = append(w.samples, s)
}

func (w *fakeWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.samples)
}

func (w *fakeWriter) lastSample(t *testing.T) influxdb.StreamSample {
	t.Helper()
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.samples) == 0 {
		t.Fatal("no samples written")
	}
	return w.samples[len(w.samples)-1]
}

// waitFor polls cond until it returns true or the timeout expires.
func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestRecorder_WritesSamples(t *testing.T) {
	writer := &fakeWriter{}
	var frames atomic.Uint64
	source := func() stream.Metrics {
		return stream.Metrics{Frames: frames.Add(1)}
	}

	rec := NewRecorder("vigil-01", 10*time.Millisecond, source, writer)
	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer rec.Stop()

	waitFor(t, 2*time.Second, "at least 3 samples", func() bool {
		return writer.count() >= 3
	})
}

func TestRecorder_SampleFields(t *testing.T) {
	writer := &fakeWriter{}
	source := func() stream.Metrics {
		return stream.Metrics{
			Frames:              100,
			DroppedFrames:       5,
			SlowDeliveries:      2,
			AverageProcessing:   15 * time.Millisecond,
			LastCaptureDuration: 3 * time.Millisecond,
			MemoryEstimate:      1 << 20,
			Subscribers:         4,
		}
	}

	rec := NewRecorder("vigil-01", time.Minute, source, writer)
	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	rec.Stop() // final sample written on stop

	s := writer.lastSample(t)
	if s.ServiceID != "vigil-01" {
		t.Errorf("ServiceID = %q, want %q", s.ServiceID, "vigil-01")
	}
	if s.Frames != 100 || s.DroppedFrames != 5 || s.SlowDeliveries != 2 {
		t.Errorf("counters = %d/%d/%d, want 100/5/2", s.Frames, s.DroppedFrames, s.SlowDeliveries)
	}
	if s.AverageProcessing != 15*time.Millisecond {
		t.Errorf("AverageProcessing = %v, want 15ms", s.AverageProcessing)
	}
	if s.LastCapture != 3*time.Millisecond {
		t.Errorf("LastCapture = %v, want 3ms", s.LastCapture)
	}
	if s.MemoryBytes != 1<<20 {
		t.Errorf("MemoryBytes = %d, want %d", s.MemoryBytes, 1<<20)
	}
	if s.Subscribers != 4 {
		t.Errorf("Subscribers = %d, want 4", s.Subscribers)
	}
}

func TestRecorder_StartTwice(t *testing.T) {
	writer := &fakeWriter{}
	rec := NewRecorder("vigil-01", time.Minute, func() stream.Metrics { return stream.Metrics{} }, writer)

	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer rec.Stop()

	if err := rec.Start(); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start error = %v, want ErrAlreadyRunning", err)
	}
}

func TestRecorder_StopWritesFinalSample(t *testing.T) {
	writer := &fakeWriter{}
	rec := NewRecorder("vigil-01", time.Minute, func() stream.Metrics { return stream.Metrics{} }, writer)

	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	rec.Stop()

	// interval never fired, so the only sample is the shutdown one
	if got := writer.count(); got != 1 {
		t.Errorf("samples = %d, want 1", got)
	}
}

func TestRecorder_StopIdempotent(t *testing.T) {
	writer := &fakeWriter{}
	rec := NewRecorder("vigil-01", time.Minute, func() stream.Metrics { return stream.Metrics{} }, writer)

	rec.Stop() // before Start: no-op

	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	rec.Stop()
	rec.Stop() // second Stop: no-op

	if got := writer.count(); got != 1 {
		t.Errorf("samples = %d, want 1", got)
	}
}

func TestRecorder_RestartAfterStop(t *testing.T) {
	writer := &fakeWriter{}
	rec := NewRecorder("vigil-01", time.Minute, func() stream.Metrics { return stream.Metrics{} }, writer)

	if err := rec.Start(); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	rec.Stop()

	if err := rec.Start(); err != nil {
		t.Fatalf("Start after Stop: %v", err)
	}
	rec.Stop()

	if got := writer.count(); got != 2 {
		t.Errorf("samples = %d, want 2", got)
	}
}
