package mqtt

import (
	"crypto/tls"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/vigil-core/internal/infrastructure/config"
)

const (
	// connectTimeout bounds the synchronous connect in Connect. After
	// that, paho's retry loop owns the connection.
	connectTimeout = 10 * time.Second

	// tokenTimeout bounds waits for broker acks on publish, subscribe
	// and unsubscribe tokens.
	tokenTimeout = 5 * time.Second

	// disconnectQuiesce is how long Close lets in-flight work drain,
	// in milliseconds as paho expects.
	disconnectQuiesce = 1000

	// keepAlive is the PINGREQ interval for dead-connection detection.
	keepAlive = 60 * time.Second

	// maxQoS bounds caller-supplied QoS. MQTT defines levels 0, 1 and 2.
	maxQoS = 2
)

// newClientOptions translates Vigil config into paho client options.
//
// Reconnection is delegated to paho: auto-reconnect with backoff between
// the configured initial and max delays, plus connect retry so a broker
// that is down at startup does not take the service with it. Sessions
// are always clean; subscription state lives in the Client and is
// replayed on every reconnect.
func newClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions().
		AddBroker(brokerURL(cfg.Broker)).
		SetClientID(cfg.Broker.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(time.Duration(cfg.Reconnect.InitialDelay) * time.Second).
		SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second).
		SetConnectTimeout(connectTimeout).
		SetKeepAlive(keepAlive)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	// The broker publishes this will if the client vanishes without a
	// DISCONNECT, so subscribers can tell a crash from a clean shutdown.
	// Retained at QoS 1 so late subscribers see it too.
	opts.SetWill(Topics{}.SystemStatus(), buildLWTPayload(cfg.Broker.ClientID), 1, true)

	return opts
}

// brokerURL builds the paho broker address, ssl:// when TLS is on.
func brokerURL(b config.MQTTBrokerConfig) string {
	scheme := "tcp"
	if b.TLS {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, b.Host, b.Port)
}
