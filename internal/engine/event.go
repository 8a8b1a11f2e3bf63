package engine

import "time"

// EventType identifies an engine lifecycle event.
type EventType string

// Engine lifecycle event types.
const (
	// EventEngineStarted fires once the frame source probe succeeds and
	// the stream is delivering frames.
	EventEngineStarted EventType = "engine_started"

	// EventEngineStopping fires when Shutdown begins.
	EventEngineStopping EventType = "engine_stopping"

	// EventStreamHalted fires when the frame stream stops fatally.
	EventStreamHalted EventType = "stream_halted"

	// Run-scoped events. Workflow and RunID are always set.
	EventRunStarted   EventType = "run_started"
	EventRunCompleted EventType = "run_completed"
	EventRunFailed    EventType = "run_failed"
	EventRunCancelled EventType = "run_cancelled"
)

// Event describes an engine state change worth broadcasting to observers.
// Workflow and RunID are populated for run-scoped events and empty for
// engine and stream events. Err carries the failure cause where one exists.
// DurationMS is set on terminal run events and zero everywhere else.
type Event struct {
	Type       EventType
	Workflow   string
	RunID      string
	Err        error
	DurationMS int
	At         time.Time
}

// EventSink receives engine events. Implementations must be safe for
// concurrent use and should not block: the engine publishes inline from
// its run loop.
type EventSink interface {
	Publish(Event)
}
