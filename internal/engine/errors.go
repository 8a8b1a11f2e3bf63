package engine

import "errors"

var (
	// ErrAlreadyStarted is returned by Start when the engine is running.
	ErrAlreadyStarted = errors.New("engine: already started")

	// ErrModuleExists is returned when registering a module whose name
	// is already taken.
	ErrModuleExists = errors.New("engine: module already registered")

	// ErrModuleNotFound is returned when a workflow references a module
	// that was never registered.
	ErrModuleNotFound = errors.New("engine: module not found")

	// ErrWorkflowExists is returned when registering a workflow whose
	// name is already taken.
	ErrWorkflowExists = errors.New("engine: workflow already registered")

	// ErrWorkflowNotFound is returned when running an unknown workflow.
	ErrWorkflowNotFound = errors.New("engine: workflow not found")

	// ErrWorkflowRunning is returned when a run is requested while
	// another workflow is still active.
	ErrWorkflowRunning = errors.New("engine: a workflow is already running")

	// ErrSourceUnavailable is returned when the frame source fails its
	// readiness probe within the configured window.
	ErrSourceUnavailable = errors.New("engine: frame source unavailable")
)
