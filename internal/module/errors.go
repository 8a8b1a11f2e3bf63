package module

import "errors"

// Domain-specific errors for module lifecycle operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotInactive is returned when Activate is called on a module that
	// is not in the inactive state. Activation is only legal from inactive.
	ErrNotInactive = errors.New("module: not inactive")

	// ErrNotActive is returned when Deactivate is called on a module in a
	// transitional or failed state. Deactivating an inactive module is a
	// tolerated no-op and does not produce this error.
	ErrNotActive = errors.New("module: not active")
)
