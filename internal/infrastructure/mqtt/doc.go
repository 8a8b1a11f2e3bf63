// Package mqtt carries Vigil's outward event surface: engine, stream and
// workflow events go out, run commands come in, and a retained status
// topic tells subscribers whether the service is alive.
//
// # Purpose
//
// MQTT decouples dashboards and companion tooling from the Vigil
// process. Subscribers watch the vigil/ topic tree; nothing outside
// this package talks to the broker directly.
//
//	Vigil Core <-> broker <-> dashboards, companion tooling
//
// Topic layout lives in topics.go. Everything stays under the vigil/
// prefix so one ACL rule covers the service.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.WorkflowCommand(), 1,
//	    func(topic string, payload []byte) error {
//	        return handleRunRequest(payload)
//	    })
//
//	client.PublishJSON(mqtt.Topics{}.WorkflowEvent("sweep"), summary)
//
// # Connection Lifecycle
//
// Connect performs one synchronous attempt so bad config fails at
// startup. After that paho reconnects on its own with backoff between
// the configured delays; subscriptions are tracked locally and replayed
// on every reconnect. A Last Will and Testament marks the service
// offline if it dies without a clean DISCONNECT, and Close publishes a
// distinct graceful-shutdown status so the two are distinguishable.
//
// # Thread Safety
//
// All Client methods are safe for concurrent use. Message handlers run
// on paho's goroutines with panic recovery; a panicking handler is
// logged and the connection survives.
//
// TLS (broker.tls) and credentials are required for anything beyond
// local development. Payloads are not encrypted beyond the transport.
package mqtt
