package influxdb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/nerrad567/vigil-core/internal/infrastructure/config"
)

const (
	// connectTimeout bounds the connectivity check in Connect.
	connectTimeout = 10 * time.Second

	// pingTimeout bounds the health check ping.
	pingTimeout = 5 * time.Second

	// Batching defaults applied when config leaves them unset. Flush
	// interval is in seconds, matching vigil.yaml.
	defaultBatchSize     = 100
	defaultFlushInterval = 10
)

// Client writes Vigil telemetry to InfluxDB v2.
//
// Writes go through the non-blocking batched write API, so callers on
// the capture path never wait on the network. Batch errors surface
// asynchronously through the SetOnError callback. All methods are safe
// for concurrent use.
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	cfg      config.InfluxDBConfig

	mu        sync.RWMutex // guards connected, onError
	connected bool
	onError   func(error)
}

// Connect builds the client, verifies the server answers, and starts
// the async error drain. Returns ErrDisabled when the integration is
// off in config so callers can treat that case separately from a
// broken server.
func Connect(ctx context.Context, cfg config.InfluxDBConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, writeOptions(cfg))

	if err := ping(ctx, client, connectTimeout); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	c := &Client{
		client:    client,
		writeAPI:  client.WriteAPI(cfg.Org, cfg.Bucket),
		cfg:       cfg,
		connected: true,
	}

	go c.drainWriteErrors(c.writeAPI.Errors())

	return c, nil
}

// writeOptions applies batching config with defaults for unset values.
// The clamp also keeps the uint conversions safe.
func writeOptions(cfg config.InfluxDBConfig) *influxdb2.Options {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	flush := cfg.FlushInterval
	if flush <= 0 {
		flush = defaultFlushInterval
	}

	return influxdb2.DefaultOptions().
		SetBatchSize(uint(batch)).
		SetFlushInterval(uint(flush) * 1000) // the API wants milliseconds
}

// ping checks the server answers within timeout.
func ping(ctx context.Context, client influxdb2.Client, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	up, err := client.Ping(pingCtx)
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	if !up {
		return errors.New("server not ready")
	}
	return nil
}

// drainWriteErrors forwards async batch failures to the error callback.
// The channel closes when the write API shuts down.
func (c *Client) drainWriteErrors(errCh <-chan error) {
	for err := range errCh {
		c.mu.RLock()
		callback := c.onError
		c.mu.RUnlock()

		if callback != nil {
			callback(err)
		}
	}
}

// Close flushes pending writes and shuts the client down. Safe on a
// client that never connected.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}

	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()

	c.writeAPI.Flush()
	c.client.Close()

	return nil
}

// HealthCheck pings the server and reports whether writes can land.
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	if err := ping(ctx, c.client, pingTimeout); err != nil {
		return fmt.Errorf("influxdb health check: %w", err)
	}

	return nil
}

// IsConnected reports the last known connection state. HealthCheck
// performs an active ping; this does not.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// SetOnError registers a callback for async write failures. Writes are
// batched, so failures arrive after the write call that caused them.
func (c *Client) SetOnError(callback func(error)) {
	c.mu.Lock()
	c.onError = callback
	c.mu.Unlock()
}

// Flush blocks until buffered points are written. Used by tests and
// before shutdown; a closed client flushes nothing.
func (c *Client) Flush() {
	if c.writeAPI == nil || !c.IsConnected() {
		return
	}
	c.writeAPI.Flush()
}
