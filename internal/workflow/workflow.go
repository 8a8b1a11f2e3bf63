package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/vigil-core/internal/module"
)

// State is the activation state of a workflow.
type State string

const (
	// StateInactive means no activation pass has succeeded since the last
	// deactivation or rollback.
	StateInactive State = "inactive"

	// StateActive means the last activation pass succeeded and the
	// workflow's modules are processing frames.
	StateActive State = "active"
)

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}

// Options configures a workflow.
type Options struct {
	// Name identifies the workflow in errors, logs, and run history.
	Name string

	// Modules in activation order. Deactivation attempts run in this same
	// declared order; activation rollback runs in reverse.
	Modules []module.Module

	// Run is the optional body executed between activation and
	// deactivation. A nil Run makes Execute a pure activate/deactivate
	// cycle.
	Run func(ctx context.Context) error

	// Timeout bounds one Execute call. Zero means no deadline.
	Timeout time.Duration

	// Logger for orchestration diagnostics. Nil means silent.
	Logger Logger
}

// Workflow activates an ordered group of modules as one all-or-nothing
// operation and releases them with one best-effort, error-aggregating
// pass.
//
// A workflow borrows its modules; it never owns them. Two workflows may
// list the same module, though only one should run at a time (the engine
// enforces this for workflows it executes).
//
// Thread Safety:
//   - ActivateModules and DeactivateModules are mutually exclusive and
//     internally sequential; module hooks never run concurrently through
//     the same workflow.
type Workflow struct {
	name    string
	modules []module.Module
	run     func(ctx context.Context) error
	timeout time.Duration
	logger  Logger

	mu    sync.Mutex
	state State
}

// New validates opts and builds a Workflow.
func New(opts Options) (*Workflow, error) {
	if opts.Name == "" {
		return nil, ErrNameRequired
	}
	for i, m := range opts.Modules {
		if m == nil {
			return nil, fmt.Errorf("%w: position %d", ErrNilModule, i)
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = nopLogger{}
	}

	return &Workflow{
		name:    opts.Name,
		modules: opts.Modules,
		run:     opts.Run,
		timeout: opts.Timeout,
		logger:  logger,
		state:   StateInactive,
	}, nil
}

// Name returns the workflow identity.
func (w *Workflow) Name() string { return w.name }

// State returns the current activation state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// ActivateModules activates every listed module in declared order.
//
// Modules already outside the inactive state are skipped: they were not
// activated by this pass, join no rollback ledger, and are left untouched
// by any unwind. On the first activation failure the modules this pass
// activated are deactivated again in reverse order (unwind failures are
// logged, the unwind always completes), and an *ActivationError naming
// the failed module is returned with the workflow back in the inactive
// state. Either every listed module was brought up, or none remain up.
func (w *Workflow) ActivateModules(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Rollback ledger: modules this pass brought to active, in
	// activation order.
	var ledger []module.Module

	for _, m := range w.modules {
		if m.State() != module.StateInactive {
			w.logger.Debug("module not inactive, skipping activation",
				"workflow", w.name,
				"module", m.Name(),
				"state", string(m.State()))
			continue
		}

		if err := m.Activate(ctx); err != nil {
			w.logger.Warn("activation failed, rolling back",
				"workflow", w.name,
				"module", m.Name(),
				"activated_so_far", len(ledger),
				"error", err)
			w.rollback(ctx, ledger)
			w.state = StateInactive
			return &ActivationError{Workflow: w.name, Module: m.Name(), Err: err}
		}

		// Disabled modules accept activation without leaving inactive;
		// only modules that actually came up belong on the ledger.
		if m.State() == module.StateActive {
			ledger = append(ledger, m)
		}
	}

	w.state = StateActive
	return nil
}

// rollback deactivates ledger entries in reverse activation order. Every
// entry gets its attempt regardless of earlier rollback failures.
func (w *Workflow) rollback(ctx context.Context, ledger []module.Module) {
	for i := len(ledger) - 1; i >= 0; i-- {
		m := ledger[i]
		if err := m.Deactivate(ctx); err != nil {
			w.logger.Warn("rollback deactivation failed",
				"workflow", w.name,
				"module", m.Name(),
				"error", err)
		}
	}
}

// DeactivateModules gives every listed module exactly one deactivation
// attempt, in declared order. Modules that are already inactive no-op.
//
// Failures never stop the pass: all remaining modules still get their
// attempt, and the collected failures are returned as one
// *DeactivationError. The workflow state is inactive afterwards no matter
// what.
func (w *Workflow) DeactivateModules(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var failures []ModuleError
	for _, m := range w.modules {
		if err := m.Deactivate(ctx); err != nil {
			w.logger.Warn("module deactivation failed",
				"workflow", w.name,
				"module", m.Name(),
				"error", err)
			failures = append(failures, ModuleError{Module: m.Name(), Err: err})
		}
	}

	w.state = StateInactive

	if len(failures) > 0 {
		return &DeactivationError{Workflow: w.name, Failures: failures}
	}
	return nil
}

// Execute runs one full workflow cycle: activate, run the body, always
// deactivate.
//
// Deactivation runs on every exit path, including body failure and
// cancellation, and on a cancellation-stripped context so that teardown
// is not aborted by the very cancellation that triggered it. Body and
// deactivation errors are joined rather than one shadowing the other.
func (w *Workflow) Execute(ctx context.Context) error {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	if err := w.ActivateModules(ctx); err != nil {
		return err
	}

	var runErr error
	if w.run != nil {
		if err := w.run(ctx); err != nil {
			runErr = fmt.Errorf("workflow %s: %w", w.name, err)
		}
	}

	deactErr := w.DeactivateModules(context.WithoutCancel(ctx))

	return errors.Join(runErr, deactErr)
}
