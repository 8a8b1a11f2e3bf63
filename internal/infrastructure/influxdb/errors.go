package influxdb

import "errors"

// Sentinel errors for InfluxDB operations, matched with errors.Is.
var (
	// ErrDisabled reports that the integration is switched off in
	// config. Connect refuses rather than returning a dead client.
	ErrDisabled = errors.New("influxdb: disabled in configuration")

	// ErrConnectionFailed reports that the server did not answer the
	// startup connectivity check.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrNotConnected reports an operation on a closed client.
	ErrNotConnected = errors.New("influxdb: not connected")
)
