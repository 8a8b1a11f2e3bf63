package telemetry

import (
	"sync"
	"time"

	"github.com/nerrad567/vigil-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/vigil-core/internal/stream"
)

// SampleWriter is the interface the recorder needs from the InfluxDB client.
type SampleWriter interface {
	// WriteStreamSample records one stream health snapshot.
	WriteStreamSample(s influxdb.StreamSample)
}

// MetricsSource returns the current stream metrics snapshot.
type MetricsSource func() stream.Metrics

// Recorder periodically samples stream metrics and writes them to a
// time-series backend. Sampling reads a snapshot, so the recorder never
// touches the capture path.
type Recorder struct {
	serviceID string
	interval  time.Duration
	source    MetricsSource
	writer    SampleWriter

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewRecorder creates a stream metrics recorder. Non-positive intervals
// fall back to one second.
func NewRecorder(serviceID string, interval time.Duration, source MetricsSource, writer SampleWriter) *Recorder {
	if interval <= 0 {
		interval = time.Second
	}
	return &Recorder{
		serviceID: serviceID,
		interval:  interval,
		source:    source,
		writer:    writer,
	}
}

// Start begins periodic sampling in a background goroutine.
// Returns ErrAlreadyRunning if the recorder is already started.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return ErrAlreadyRunning
	}
	r.running = true
	r.stopCh = make(chan struct{})

	r.wg.Add(1)
	go r.run(r.stopCh)

	return nil
}

// Stop halts sampling and waits for the background goroutine to exit.
// A final sample is written on the way out so shutdown state is captured.
// Safe to call multiple times and before Start.
func (r *Recorder) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	close(r.stopCh)
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *Recorder) run(stopCh <-chan struct{}) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			r.writeSample()
			return
		case <-ticker.C:
			r.writeSample()
		}
	}
}

func (r *Recorder) writeSample() {
	m := r.source()
	r.writer.WriteStreamSample(influxdb.StreamSample{
		ServiceID:         r.serviceID,
		Frames:            m.Frames,
		DroppedFrames:     m.DroppedFrames,
		SlowDeliveries:    m.SlowDeliveries,
		AverageProcessing: m.AverageProcessing,
		LastCapture:       m.LastCaptureDuration,
		MemoryBytes:       m.MemoryEstimate,
		Subscribers:       m.Subscribers,
	})
}
