package mqtt

import "errors"

// Sentinel errors for broker operations. Callers match with errors.Is;
// wrapped variants carry the underlying paho detail.
var (
	// ErrConnectionFailed reports that the initial connection attempt
	// did not complete. Reconnection after a successful connect is
	// handled internally and never surfaces this error.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrNotConnected reports an operation attempted while the broker
	// connection is down.
	ErrNotConnected = errors.New("mqtt: not connected")

	// ErrPublishFailed reports a publish that was rejected, timed out,
	// or carried an unmarshallable or oversized payload.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrSubscribeFailed reports a subscribe the broker did not ack.
	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	// ErrUnsubscribeFailed reports an unsubscribe the broker did not ack.
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe failed")

	// ErrInvalidTopic reports an empty topic string.
	ErrInvalidTopic = errors.New("mqtt: topic cannot be empty")

	// ErrInvalidQoS reports a QoS level outside 0..2.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level (must be 0, 1, or 2)")
)
