package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// StreamSample is one periodic snapshot of frame stream health.
// Durations are converted to milliseconds at write time so dashboards
// get plain numeric fields.
type StreamSample struct {
	ServiceID         string
	Frames            uint64
	DroppedFrames     uint64
	SlowDeliveries    uint64
	AverageProcessing time.Duration
	LastCapture       time.Duration
	MemoryBytes       uint64
	Subscribers       int
}

// WriteStreamSample records one capture loop health snapshot in the
// stream_metrics measurement. Counter fields are written as int64 so
// Flux queries can derive rates without casts.
//
// The write is non-blocking; the point lands in the batch buffer and a
// disconnected client drops it.
func (c *Client) WriteStreamSample(s StreamSample) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"stream_metrics",
		map[string]string{
			"service_id": s.ServiceID,
		},
		map[string]interface{}{
			"frames":            int64(s.Frames),
			"dropped_frames":    int64(s.DroppedFrames),
			"slow_deliveries":   int64(s.SlowDeliveries),
			"avg_processing_ms": float64(s.AverageProcessing) / float64(time.Millisecond),
			"last_capture_ms":   float64(s.LastCapture) / float64(time.Millisecond),
			"memory_bytes":      int64(s.MemoryBytes),
			"subscribers":       s.Subscribers,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteRunMetric records one terminal workflow run in the workflow_runs
// measurement, tagged by workflow and status so failure rates fall out
// of a simple group-by. The count field exists purely for aggregation.
//
// Like WriteStreamSample, the write is non-blocking and best-effort.
func (c *Client) WriteRunMetric(serviceID, workflow, status string, durationMS int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"workflow_runs",
		map[string]string{
			"service_id": serviceID,
			"workflow":   workflow,
			"status":     status,
		},
		map[string]interface{}{
			"duration_ms": durationMS,
			"count":       1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
