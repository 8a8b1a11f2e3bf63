package history

import "time"

// Run records a single workflow execution from trigger to completion.
// Rows are written when the run starts and updated once when it ends,
// so a crash mid-run leaves a permanent "running" row behind as evidence.
type Run struct {
	ID          string     `json:"id"`
	Workflow    string     `json:"workflow"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Status      RunStatus  `json:"status"`

	// Error holds the run's terminal error text, if any.
	Error *string `json:"error,omitempty"`

	// Module counts
	ModulesTotal int `json:"modules_total"`
	FailureCount int `json:"failure_count"`

	// Failure details (populated when modules fail)
	Failures []ModuleFailure `json:"failures,omitempty"`

	// Total run duration in milliseconds
	DurationMS *int `json:"duration_ms,omitempty"`
}

// ModuleFailure records details of a failed module within a run.
type ModuleFailure struct {
	Module string `json:"module"`
	Phase  string `json:"phase"` // activate, deactivate
	Error  string `json:"error"`
}

// RunStatus represents the state of a workflow run.
type RunStatus string

const (
	StatusPending   RunStatus = "pending"
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"    // Run returned an error
	StatusCancelled RunStatus = "cancelled" // Context cancelled mid-run
)
