package telemetry

import "errors"

// ErrAlreadyRunning is returned when starting a recorder that is running.
var ErrAlreadyRunning = errors.New("telemetry: recorder already running")
