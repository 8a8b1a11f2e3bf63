package telemetry

import "github.com/nerrad567/vigil-core/internal/engine"

// RunWriter is the interface the run metrics sink needs from the
// InfluxDB client.
type RunWriter interface {
	// WriteRunMetric records one terminal workflow run outcome.
	WriteRunMetric(serviceID, workflow, status string, durationMS int)
}

// RunMetrics forwards terminal run events to a time-series backend so
// dashboards can chart run frequency, failure rate and duration per
// workflow. Non-terminal events are ignored.
type RunMetrics struct {
	writer    RunWriter
	serviceID string
}

var _ engine.EventSink = (*RunMetrics)(nil)

// NewRunMetrics creates a run outcome sink. A nil writer produces a
// sink whose Publish is a no-op.
func NewRunMetrics(writer RunWriter, serviceID string) *RunMetrics {
	return &RunMetrics{
		writer:    writer,
		serviceID: serviceID,
	}
}

// Publish records the outcome of terminal run events. The write is
// non-blocking; the InfluxDB client batches underneath.
func (m *RunMetrics) Publish(ev engine.Event) {
	if m == nil || m.writer == nil {
		return
	}

	var status string
	switch ev.Type {
	case engine.EventRunCompleted:
		status = "completed"
	case engine.EventRunCancelled:
		status = "cancelled"
	case engine.EventRunFailed:
		status = "failed"
	default:
		return
	}

	m.writer.WriteRunMetric(m.serviceID, ev.Workflow, status, ev.DurationMS)
}

// MultiSink fans each engine event out to every sink in order. The
// engine publishes inline, so sinks must stay non-blocking.
type MultiSink []engine.EventSink

var _ engine.EventSink = MultiSink(nil)

// Publish delivers ev to each sink, skipping nil entries.
func (s MultiSink) Publish(ev engine.Event) {
	for _, sink := range s {
		if sink != nil {
			sink.Publish(ev)
		}
	}
}
