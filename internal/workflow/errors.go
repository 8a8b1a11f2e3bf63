package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// Domain-specific errors for workflow construction.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNameRequired is returned by New when no workflow name is given.
	ErrNameRequired = errors.New("workflow: name required")

	// ErrNilModule is returned by New when the module list contains nil.
	ErrNilModule = errors.New("workflow: nil module in list")
)

// ModuleError pairs one module identity with its failure.
type ModuleError struct {
	Module string
	Err    error
}

func (e ModuleError) Error() string {
	return fmt.Sprintf("%s: %v", e.Module, e.Err)
}

func (e ModuleError) Unwrap() error { return e.Err }

// ActivationError reports the first failure of an ActivateModules pass.
//
// It is returned only after the rollback of previously activated modules
// has completed, so callers observing this error can rely on the workflow
// holding no active modules it activated itself.
type ActivationError struct {
	Workflow string
	Module   string
	Err      error
}

func (e *ActivationError) Error() string {
	return fmt.Sprintf("workflow %s: %v", e.Workflow, e.Err)
}

func (e *ActivationError) Unwrap() error { return e.Err }

// DeactivationError aggregates every failure of one DeactivateModules
// pass, in module declaration order.
//
// It is returned only after every module received its deactivation
// attempt; an early failure never prevents later modules from being
// released. Unwrap exposes each failure for errors.Is / errors.As.
type DeactivationError struct {
	Workflow string
	Failures []ModuleError
}

func (e *DeactivationError) Error() string {
	names := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		names[i] = f.Module
	}
	return fmt.Sprintf("workflow %s: deactivation failed for %d of its modules (%s)",
		e.Workflow, len(e.Failures), strings.Join(names, ", "))
}

func (e *DeactivationError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i := range e.Failures {
		errs[i] = e.Failures[i]
	}
	return errs
}
