package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/vigil-core/internal/infrastructure/config"
)

// testConfig returns a valid MQTT configuration for testing.
// Connection-dependent tests live in integration_test.go behind the
// integration build tag; everything here runs without a broker.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "vigil-test",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// disconnectedClient returns a client that was never connected.
// Validation paths short-circuit before touching the paho client.
func disconnectedClient() *Client {
	return &Client{
		cfg:  testConfig(),
		subs: make(map[string]subscription),
	}
}

func TestValidationErrors(t *testing.T) {
	handler := func(string, []byte) error { return nil }
	oversized := make([]byte, maxPayloadSize+1)

	tests := []struct {
		name string
		op   func(c *Client) error
		want error
	}{
		{"publish empty topic", func(c *Client) error { return c.Publish("", []byte("x"), 1, false) }, ErrInvalidTopic},
		{"publish qos 3", func(c *Client) error { return c.Publish("vigil/test", []byte("x"), 3, false) }, ErrInvalidQoS},
		{"publish oversized payload", func(c *Client) error { return c.Publish("vigil/test", oversized, 1, false) }, ErrPublishFailed},
		{"publish disconnected", func(c *Client) error { return c.Publish("vigil/test", []byte("x"), 1, false) }, ErrNotConnected},
		{"publish json disconnected", func(c *Client) error { return c.PublishJSON("vigil/test", map[string]string{"s": "ok"}) }, ErrNotConnected},
		{"publish json unmarshallable", func(c *Client) error { return c.PublishJSON("vigil/test", make(chan int)) }, ErrPublishFailed},
		{"subscribe empty topic", func(c *Client) error { return c.Subscribe("", 1, handler) }, ErrInvalidTopic},
		{"subscribe qos 5", func(c *Client) error { return c.Subscribe("vigil/test", 5, handler) }, ErrInvalidQoS},
		{"subscribe nil handler", func(c *Client) error { return c.Subscribe("vigil/test", 1, nil) }, ErrSubscribeFailed},
		{"subscribe disconnected", func(c *Client) error { return c.Subscribe("vigil/test", 1, handler) }, ErrNotConnected},
		{"unsubscribe empty topic", func(c *Client) error { return c.Unsubscribe("") }, ErrInvalidTopic},
		{"unsubscribe disconnected", func(c *Client) error { return c.Unsubscribe("vigil/test") }, ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.op(disconnectedClient()); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

// A rejected subscribe must not leave a tracked subscription behind,
// or the reconnect path would replay something the broker never had.
func TestFailedSubscribeNotTracked(t *testing.T) {
	client := disconnectedClient()

	_ = client.Subscribe("vigil/test", 1, func(string, []byte) error { return nil })

	if client.HasSubscription("vigil/test") {
		t.Error("HasSubscription() = true after failed Subscribe()")
	}
	if client.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", client.SubscriptionCount())
	}
}

func TestCloseWithoutConnect(t *testing.T) {
	if err := (&Client{}).Close(); err != nil {
		t.Errorf("Close() on zero-value client error = %v, want nil", err)
	}
}

func TestIsConnectedZeroValue(t *testing.T) {
	if (&Client{}).IsConnected() {
		t.Error("IsConnected() = true for a client that never connected")
	}
}

func TestHealthCheckDisconnected(t *testing.T) {
	err := disconnectedClient().HealthCheck(context.Background())
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestHealthCheckCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := disconnectedClient().HealthCheck(ctx)
	if err == nil {
		t.Fatal("HealthCheck() expected error for cancelled context")
	}
	if errors.Is(err, ErrNotConnected) {
		t.Error("cancelled context should be reported before connection state")
	}
}

func TestSetLogger(t *testing.T) {
	client := disconnectedClient()

	client.SetLogger(&recordingLogger{})
	if client.getLogger() == nil {
		t.Error("getLogger() = nil after SetLogger()")
	}

	client.SetLogger(nil)
	if client.getLogger() != nil {
		t.Error("getLogger() != nil after SetLogger(nil)")
	}
}

// recordingLogger captures log calls for assertions.
type recordingLogger struct {
	mu    sync.Mutex
	errs  []string
	warns []string
}

func (l *recordingLogger) Error(msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, msg)
}

func (l *recordingLogger) Warn(msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *recordingLogger) counts() (int, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.errs), len(l.warns)
}

// fakeMessage satisfies paho's Message interface for handler tests.
type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func TestSafeHandlerRecoversPanic(t *testing.T) {
	client := disconnectedClient()
	log := &recordingLogger{}
	client.SetLogger(log)

	h := client.safeHandler(func(string, []byte) error {
		panic("unparseable payload")
	})

	h(nil, fakeMessage{topic: "vigil/command/workflow", payload: []byte("{")})

	errs, _ := log.counts()
	if errs != 1 {
		t.Errorf("panic logged %d times, want 1", errs)
	}
}

func TestSafeHandlerLogsHandlerError(t *testing.T) {
	client := disconnectedClient()
	log := &recordingLogger{}
	client.SetLogger(log)

	h := client.safeHandler(func(string, []byte) error {
		return errors.New("unknown workflow")
	})

	h(nil, fakeMessage{topic: "vigil/command/workflow", payload: []byte("{}")})

	errs, warns := log.counts()
	if errs != 0 || warns != 1 {
		t.Errorf("logged errs=%d warns=%d, want 0 and 1", errs, warns)
	}
}

// Without a logger, panics and handler errors are swallowed. The
// handler must still not crash the caller.
func TestSafeHandlerSilentWithoutLogger(t *testing.T) {
	client := disconnectedClient()

	h := client.safeHandler(func(string, []byte) error {
		panic("no logger attached")
	})

	h(nil, fakeMessage{topic: "vigil/test"})
}

func TestStatusPayloads(t *testing.T) {
	tests := []struct {
		name       string
		build      func() string
		wantStatus string
		wantReason string
	}{
		{"online", func() string { return buildOnlinePayload("vigil-01") }, "online", ""},
		{"offline", func() string { return buildOfflinePayload("vigil-01") }, "offline", "graceful_shutdown"},
		{"lwt", func() string { return buildLWTPayload("vigil-01") }, "offline", "unexpected_disconnect"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p StatusPayload
			if err := json.Unmarshal([]byte(tt.build()), &p); err != nil {
				t.Fatalf("unmarshalling payload: %v", err)
			}
			if p.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", p.Status, tt.wantStatus)
			}
			if p.ClientID != "vigil-01" {
				t.Errorf("ClientID = %q, want %q", p.ClientID, "vigil-01")
			}
			if p.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", p.Reason, tt.wantReason)
			}
			if _, err := time.Parse(time.RFC3339, p.Timestamp); err != nil {
				t.Errorf("Timestamp %q not RFC3339: %v", p.Timestamp, err)
			}
		})
	}
}

func TestTopicBuilders(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"EngineEvent", Topics{}.EngineEvent(), "vigil/event/engine"},
		{"StreamEvent", Topics{}.StreamEvent(), "vigil/event/stream"},
		{"WorkflowEvent", Topics{}.WorkflowEvent("sweep"), "vigil/event/workflow/sweep"},
		{"WorkflowCommand", Topics{}.WorkflowCommand(), "vigil/command/workflow"},
		{"SystemStatus", Topics{}.SystemStatus(), "vigil/system/status"},
		{"AllWorkflowEvents", Topics{}.AllWorkflowEvents(), "vigil/event/workflow/+"},
		{"AllEvents", Topics{}.AllEvents(), "vigil/event/#"},
		{"AllCommands", Topics{}.AllCommands(), "vigil/command/#"},
		{"AllTopics", Topics{}.AllTopics(), "vigil/#"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s() = %q, want %q", tt.name, tt.got, tt.want)
			}
		})
	}
}

// All builders must stay inside the vigil/ namespace so a single ACL
// rule can cover the service.
func TestTopicsShareRootPrefix(t *testing.T) {
	topics := []string{
		Topics{}.EngineEvent(),
		Topics{}.StreamEvent(),
		Topics{}.WorkflowEvent("sweep"),
		Topics{}.WorkflowCommand(),
		Topics{}.SystemStatus(),
		Topics{}.AllEvents(),
		Topics{}.AllCommands(),
	}

	for _, topic := range topics {
		if !strings.HasPrefix(topic, TopicPrefix+"/") {
			t.Errorf("topic %q missing %q prefix", topic, TopicPrefix)
		}
	}
}
