// Package workflow orchestrates groups of modules as atomic operations.
//
// # Purpose
//
// A workflow is the unit of orchestration above individual modules: an
// ordered module list, an optional body, and two passes with sharply
// different failure semantics.
//
// Activation is all-or-nothing. Modules come up in declared order; the
// first failure unwinds everything this pass activated, in reverse order,
// before the error is reported. Observers never see a half-activated
// workflow outlive the call that created it.
//
// Deactivation is total and best-effort. Every module gets exactly one
// attempt regardless of earlier failures, and all failures come back
// together in one *DeactivationError. A cleanup pass must never abandon
// later modules because an earlier one misbehaved.
//
// # Usage
//
//	wf, err := workflow.New(workflow.Options{
//	    Name:    "sweep",
//	    Modules: []module.Module{tracker},
//	    Run:     func(ctx context.Context) error { ... },
//	    Timeout: 5 * time.Minute,
//	})
//	if err != nil {
//	    return err
//	}
//	err = wf.Execute(ctx) // activate → body → always deactivate
//
// # Error Handling
//
// Activation failures surface as *ActivationError (first failure, after
// rollback). Deactivation failures surface as *DeactivationError carrying
// every (module, error) pair in declared order; errors.Is reaches each
// underlying cause through multi-unwrapping.
package workflow
