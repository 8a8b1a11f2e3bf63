package mqtt

import "fmt"

// Subscribe registers handler for topic and tracks the subscription so
// it survives reconnects.
//
// Topic may use MQTT wildcards: + matches one level, # matches the rest
// of the tree. The handler runs on paho goroutines, so keep it quick or
// hand the payload off to a channel.
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	if err := validateTopicQoS(topic, qos); err != nil {
		return err
	}
	if handler == nil {
		return fmt.Errorf("%w: nil handler", ErrSubscribeFailed)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	// Track before subscribing so a reconnect racing this call still
	// replays the subscription. Untracked again on failure.
	c.track(topic, subscription{qos: qos, handler: handler})

	token := c.client.Subscribe(topic, qos, c.safeHandler(handler))
	if !token.WaitTimeout(tokenTimeout) {
		c.untrack(topic)
		return fmt.Errorf("%w: no ack within %v", ErrSubscribeFailed, tokenTimeout)
	}
	if err := token.Error(); err != nil {
		c.untrack(topic)
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}

	return nil
}

// Unsubscribe stops delivery for a topic. Messages already in flight may
// still reach the handler. The topic must match the subscribed pattern
// exactly.
func (c *Client) Unsubscribe(topic string) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.untrack(topic)

	token := c.client.Unsubscribe(topic)
	if !token.WaitTimeout(tokenTimeout) {
		return fmt.Errorf("%w: no ack within %v", ErrUnsubscribeFailed, tokenTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnsubscribeFailed, err)
	}

	return nil
}

func (c *Client) track(topic string, sub subscription) {
	c.subMu.Lock()
	c.subs[topic] = sub
	c.subMu.Unlock()
}

func (c *Client) untrack(topic string) {
	c.subMu.Lock()
	delete(c.subs, topic)
	c.subMu.Unlock()
}

// SubscriptionCount returns the number of tracked subscriptions.
func (c *Client) SubscriptionCount() int {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	return len(c.subs)
}

// HasSubscription reports whether topic has a tracked subscription.
// Exact string comparison only; wildcard patterns are not expanded.
func (c *Client) HasSubscription(topic string) bool {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	_, ok := c.subs[topic]
	return ok
}
