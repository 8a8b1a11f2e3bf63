package mqtt

import (
	"context"
	"fmt"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/vigil-core/internal/infrastructure/config"
)

// MessageHandler receives inbound messages. Paho invokes handlers on its
// own goroutines, one call per message; a returned error is logged but
// does not change acknowledgement.
type MessageHandler func(topic string, payload []byte) error

// Logger is the slice of logging.Logger this package needs. Handler
// panics log at Error, handler failures at Warn.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// subscription is what resubscribeAll needs to replay a Subscribe call.
// The topic is the map key.
type subscription struct {
	qos     byte
	handler MessageHandler
}

// Client is Vigil's connection to the broker.
//
// It layers three things over paho: local subscription tracking so
// handlers survive reconnects, retained online/offline status on the
// system status topic, and panic recovery around message handlers.
// All methods are safe for concurrent use.
type Client struct {
	client pahomqtt.Client
	cfg    config.MQTTConfig

	mu           sync.RWMutex // guards connected, hooks, logger
	connected    bool
	onConnect    func()
	onDisconnect func(error)
	logger       Logger

	subMu sync.RWMutex
	subs  map[string]subscription
}

// Connect dials the broker and returns a ready client.
//
// The first attempt is synchronous so a misconfigured broker address
// fails fast at startup. From then on paho owns reconnection, and the
// connect hook replays subscriptions and re-announces online status.
func Connect(cfg config.MQTTConfig) (*Client, error) {
	c := &Client{
		cfg:  cfg,
		subs: make(map[string]subscription),
	}

	opts := newClientOptions(cfg)
	opts.SetOnConnectHandler(func(pahomqtt.Client) { c.onBrokerConnect() })
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) { c.onBrokerDisconnect(err) })

	c.client = pahomqtt.NewClient(opts)

	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("%w: no broker response within %v", ErrConnectionFailed, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	// The connect hook runs on a paho goroutine and may not have fired
	// yet. Mark connected here so callers can publish immediately.
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()

	return c, nil
}

// onBrokerConnect runs on the initial connect and every reconnect.
func (c *Client) onBrokerConnect() {
	c.mu.Lock()
	c.connected = true
	hook := c.onConnect
	c.mu.Unlock()

	c.resubscribeAll()
	c.announceOnline()

	if hook != nil {
		hook()
	}
}

// onBrokerDisconnect runs when paho loses the connection.
func (c *Client) onBrokerDisconnect(err error) {
	c.mu.Lock()
	c.connected = false
	hook := c.onDisconnect
	c.mu.Unlock()

	if hook != nil {
		hook(err)
	}
}

// resubscribeAll replays tracked subscriptions after a reconnect.
// Failures are not reported; the handler map is unchanged, so the next
// reconnect replays them again.
func (c *Client) resubscribeAll() {
	c.subMu.RLock()
	defer c.subMu.RUnlock()

	for topic, sub := range c.subs {
		c.client.Subscribe(topic, sub.qos, c.safeHandler(sub.handler))
	}
}

// announceOnline publishes the retained online status so subscribers
// joining later still see the current state.
func (c *Client) announceOnline() {
	payload := buildOnlinePayload(c.cfg.Broker.ClientID)
	c.client.Publish(Topics{}.SystemStatus(), byte(c.cfg.QoS), true, payload)
}

// Close publishes the graceful offline status and disconnects.
//
// The offline payload differs from the LWT payload, so subscribers can
// tell shutdown from crash. Safe on a client that never connected.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}

	if c.IsConnected() {
		payload := buildOfflinePayload(c.cfg.Broker.ClientID)
		token := c.client.Publish(Topics{}.SystemStatus(), byte(c.cfg.QoS), true, payload)
		token.WaitTimeout(tokenTimeout)
	}

	c.client.Disconnect(disconnectQuiesce)

	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()

	return nil
}

// HealthCheck reports whether the broker connection is up.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mqtt health check: %w", err)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// IsConnected reports the last known connection state, cross-checked
// against paho's own view.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected && c.client.IsConnected()
}

// SetOnConnect registers a hook invoked on the initial connect and every
// reconnect, after subscriptions have been replayed.
func (c *Client) SetOnConnect(hook func()) {
	c.mu.Lock()
	c.onConnect = hook
	c.mu.Unlock()
}

// SetOnDisconnect registers a hook invoked when the connection drops,
// with the reason paho reported.
func (c *Client) SetOnDisconnect(hook func(error)) {
	c.mu.Lock()
	c.onDisconnect = hook
	c.mu.Unlock()
}

// SetLogger enables handler error and panic logging. Without a logger
// both are dropped.
func (c *Client) SetLogger(logger Logger) {
	c.mu.Lock()
	c.logger = logger
	c.mu.Unlock()
}

func (c *Client) getLogger() Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.logger
}

// safeHandler adapts a MessageHandler for paho, recovering panics so a
// bad payload cannot take down the paho router goroutine.
func (c *Client) safeHandler(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				if log := c.getLogger(); log != nil {
					log.Error("mqtt handler panicked", "topic", msg.Topic(), "panic", r)
				}
			}
		}()

		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			if log := c.getLogger(); log != nil {
				log.Warn("mqtt handler failed", "topic", msg.Topic(), "error", err)
			}
		}
	}
}
