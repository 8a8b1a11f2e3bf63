package module

import (
	"context"
	"fmt"
	"sync"

	"github.com/nerrad567/vigil-core/internal/stream"
)

// State is the lifecycle state of a module.
type State string

const (
	// StateInactive means the module holds no resources. The only state
	// activation may start from, and the state every path returns to.
	StateInactive State = "inactive"

	// StateActivating means OnActivate is running.
	StateActivating State = "activating"

	// StateActive means the module is processing frames.
	StateActive State = "active"

	// StateDeactivating means OnDeactivate is running.
	StateDeactivating State = "deactivating"

	// StateFailed is a transient marker recorded when a lifecycle hook
	// fails; the module then settles back to inactive. The failure stays
	// observable through LastError.
	StateFailed State = "failed"
)

// Module is one independent stream consumer with a managed lifecycle.
//
// Modules never reference each other; any coordination between them is
// expressed by the order a workflow lists them in.
type Module interface {
	// Name identifies the module in registries, logs, and errors.
	Name() string

	// State returns the current lifecycle state.
	State() State

	// Activate acquires the module's resources. Only legal from the
	// inactive state.
	Activate(ctx context.Context) error

	// Deactivate releases the module's resources. Legal from active;
	// a no-op from inactive.
	Deactivate(ctx context.Context) error

	// ProcessFrame hands the module one frame. No-op unless active.
	ProcessFrame(frame *stream.Frame)
}

// Hooks is implemented by concrete modules and driven by Base.
//
// OnActivate and OnDeactivate may block and should honour ctx. OnFrame
// runs on the stream's capture loop goroutine and must stay short.
//
// Hooks are not serialised against each other: an OnFrame already in
// flight can overlap the start of OnDeactivate. Modules that subscribe to
// the stream should unsubscribe first thing in OnDeactivate; Unsubscribe
// waits out any in-flight delivery.
type Hooks interface {
	OnActivate(ctx context.Context) error
	OnDeactivate(ctx context.Context) error
	OnFrame(frame *stream.Frame)
}

// Config contains per-module settings common to all modules.
type Config struct {
	// Enabled gates activation. A disabled module accepts Activate as a
	// logged no-op and stays inactive, so workflows listing it neither
	// fail nor wait on it.
	Enabled bool
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}

// Base drives the lifecycle state machine for a concrete module.
// Embed it and pass the concrete type as its Hooks:
//
//	type Tracker struct {
//	    *module.Base
//	}
//
//	func New(cfg Config) *Tracker {
//	    t := &Tracker{}
//	    t.Base = module.NewBase("tracker", module.Config{Enabled: cfg.Enabled}, t)
//	    return t
//	}
//
// Thread Safety:
//   - State transitions are serialised; concurrent Activate/Deactivate
//     calls see consistent states.
//   - ProcessFrame delivers at most one frame at a time.
type Base struct {
	name    string
	enabled bool
	hooks   Hooks

	mu      sync.Mutex
	state   State
	lastErr error

	// procMu enforces one-frame-at-a-time processing.
	procMu sync.Mutex

	logger Logger
}

// NewBase creates the lifecycle driver for a module. hooks must not be nil.
func NewBase(name string, cfg Config, hooks Hooks) *Base {
	return &Base{
		name:    name,
		enabled: cfg.Enabled,
		hooks:   hooks,
		state:   StateInactive,
		logger:  nopLogger{},
	}
}

// SetLogger sets a logger for lifecycle diagnostics.
// Pass nil to restore the no-op default.
func (b *Base) SetLogger(logger Logger) {
	if logger == nil {
		logger = nopLogger{}
	}
	b.logger = logger
}

// Name returns the module identity.
func (b *Base) Name() string { return b.name }

// Enabled reports whether activation is gated off.
func (b *Base) Enabled() bool { return b.enabled }

// State returns the current lifecycle state.
func (b *Base) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// LastError returns the most recent lifecycle hook failure, if any.
func (b *Base) LastError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

// Activate moves the module from inactive to active via OnActivate.
//
// Disabled modules log and return nil without leaving inactive. A module
// in any state other than inactive returns ErrNotInactive.
//
// When OnActivate fails the module marks itself failed, runs OnDeactivate
// as best-effort self-cleanup (partial initialisation must not leak), and
// settles back to inactive before returning the wrapped cause.
func (b *Base) Activate(ctx context.Context) error {
	b.mu.Lock()
	if !b.enabled {
		b.mu.Unlock()
		b.logger.Debug("module disabled, activation skipped", "module", b.name)
		return nil
	}
	if b.state != StateInactive {
		current := b.state
		b.mu.Unlock()
		return fmt.Errorf("%w: %s is %s", ErrNotInactive, b.name, current)
	}
	b.state = StateActivating
	b.mu.Unlock()

	if err := b.hooks.OnActivate(ctx); err != nil {
		b.record(StateFailed, err)
		if cerr := b.hooks.OnDeactivate(ctx); cerr != nil {
			b.logger.Warn("cleanup after failed activation also failed",
				"module", b.name,
				"error", cerr)
		}
		b.setState(StateInactive)
		return fmt.Errorf("activating module %s: %w", b.name, err)
	}

	b.setState(StateActive)
	return nil
}

// Deactivate moves the module from active to inactive via OnDeactivate.
//
// Deactivating an already-inactive module is a tolerated no-op. Calling
// from a transitional state returns ErrNotActive.
//
// A failing OnDeactivate is recorded, but the module still settles to
// inactive: after Deactivate returns the module never keeps resources on
// the books, whatever the hook managed to release.
func (b *Base) Deactivate(ctx context.Context) error {
	b.mu.Lock()
	switch b.state {
	case StateInactive:
		b.mu.Unlock()
		return nil
	case StateActive:
	default:
		current := b.state
		b.mu.Unlock()
		return fmt.Errorf("%w: %s is %s", ErrNotActive, b.name, current)
	}
	b.state = StateDeactivating
	b.mu.Unlock()

	if err := b.hooks.OnDeactivate(ctx); err != nil {
		b.record(StateFailed, err)
		b.setState(StateInactive)
		return fmt.Errorf("deactivating module %s: %w", b.name, err)
	}

	b.setState(StateInactive)
	return nil
}

// ProcessFrame forwards one frame to OnFrame when the module is active.
// Frames arriving in any other state are discarded; the module, not the
// stream, owns that decision.
func (b *Base) ProcessFrame(frame *stream.Frame) {
	b.procMu.Lock()
	defer b.procMu.Unlock()

	if b.State() != StateActive {
		return
	}
	b.hooks.OnFrame(frame)
}

func (b *Base) setState(s State) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}

func (b *Base) record(s State, err error) {
	b.mu.Lock()
	b.state = s
	b.lastErr = err
	b.mu.Unlock()
}
