package telemetry

import (
	"time"

	"github.com/nerrad567/vigil-core/internal/engine"
	"github.com/nerrad567/vigil-core/internal/infrastructure/mqtt"
)

// EventClient is the interface the publisher needs from the MQTT client.
type EventClient interface {
	// PublishJSON marshals v and publishes it to the given topic.
	PublishJSON(topic string, v any) error
}

// Logger is the interface for optional logging support.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Publisher forwards engine events to the vigil/event topic tree as JSON.
// Publishing is best-effort: a broker outage must never stall a run, so
// failures are logged and dropped.
type Publisher struct {
	client    EventClient
	serviceID string
	logger    Logger
}

var _ engine.EventSink = (*Publisher)(nil)

// NewPublisher creates an event publisher. A nil client produces a
// publisher whose Publish is a no-op, so callers can wire one
// unconditionally even when MQTT is disabled.
func NewPublisher(client EventClient, serviceID string) *Publisher {
	return &Publisher{
		client:    client,
		serviceID: serviceID,
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for publish failures.
func (p *Publisher) SetLogger(logger Logger) {
	if logger != nil {
		p.logger = logger
	}
}

// EventPayload is the JSON body published for every engine event.
// DurationMS is only present on terminal run events.
type EventPayload struct {
	Type       string `json:"type"`
	ServiceID  string `json:"service_id"`
	Workflow   string `json:"workflow,omitempty"`
	RunID      string `json:"run_id,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMS int    `json:"duration_ms,omitempty"`
	Timestamp  string `json:"timestamp"`
}

// Publish routes an engine event to its topic. Run-scoped events go to
// the workflow's event topic, stream halts to the stream topic, and
// everything else to the engine topic.
func (p *Publisher) Publish(ev engine.Event) {
	if p == nil || p.client == nil {
		return
	}

	payload := EventPayload{
		Type:       string(ev.Type),
		ServiceID:  p.serviceID,
		Workflow:   ev.Workflow,
		RunID:      ev.RunID,
		DurationMS: ev.DurationMS,
		Timestamp:  eventTime(ev.At),
	}
	if ev.Err != nil {
		payload.Error = ev.Err.Error()
	}

	topics := mqtt.Topics{}
	topic := topics.EngineEvent()
	switch {
	case ev.Workflow != "":
		topic = topics.WorkflowEvent(ev.Workflow)
	case ev.Type == engine.EventStreamHalted:
		topic = topics.StreamEvent()
	}

	if err := p.client.PublishJSON(topic, payload); err != nil {
		p.logger.Warn("event publish failed", "topic", topic, "type", payload.Type, "error", err)
	}
}

func eventTime(at time.Time) string {
	if at.IsZero() {
		at = time.Now()
	}
	return at.UTC().Format(time.RFC3339)
}
