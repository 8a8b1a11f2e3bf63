package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/vigil-core/internal/history"
	"github.com/nerrad567/vigil-core/internal/infrastructure/config"
	"github.com/nerrad567/vigil-core/internal/module"
	"github.com/nerrad567/vigil-core/internal/stream"
	"github.com/nerrad567/vigil-core/internal/workflow"
)

// Defaults applied when the configuration leaves a tunable unset.
const (
	defaultTargetFPS     = 10
	defaultProbeInterval = 2 * time.Second
	defaultProbeTimeout  = 30 * time.Second
)

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// HistoryStore is the slice of the run repository the engine writes.
// A nil store disables run recording.
type HistoryStore interface {
	CreateRun(ctx context.Context, run *history.Run) error
	UpdateRun(ctx context.Context, run *history.Run) error
}

// Options configures an Engine.
type Options struct {
	// Config supplies stream, probe, and shutdown tunables. Nil falls
	// back to package defaults.
	Config *config.Config

	// Logger for orchestration diagnostics. Nil means silent.
	Logger Logger

	// Source produces frames. It is probed for readiness during Start
	// and feeds the capture stream the engine builds.
	Source stream.Source

	// Stream overrides the capture stream the engine would otherwise
	// build from Source. Mainly for tests.
	Stream *stream.Stream

	// History records workflow runs. Nil disables recording.
	History HistoryStore

	// Events receives lifecycle events. Nil disables publishing.
	Events EventSink
}

// Engine owns the frame stream and orchestrates workflow runs over the
// registered modules.
//
// Modules and workflows are registered up front, Start brings the frame
// source and capture stream up, Run executes one named workflow at a
// time, and Shutdown releases everything the engine still holds.
//
// Thread Safety:
//   - All exported methods are safe for concurrent use.
//   - Run claims exclusivity for the duration of one run; concurrent Run
//     calls fail fast with ErrWorkflowRunning.
type Engine struct {
	logger  Logger
	source  stream.Source
	stream  *stream.Stream
	history HistoryStore
	events  EventSink

	targetFPS     int
	probeInterval time.Duration
	probeTimeout  time.Duration
	stopTimeout   time.Duration

	mu          sync.Mutex
	started     bool
	stopped     bool
	modules     map[string]module.Module
	moduleOrder []string
	workflows   map[string]Definition
	currentName string
	currentWF   *workflow.Workflow

	// done closes when the stream halts fatally. haltOnce guards it.
	done     chan struct{}
	haltOnce sync.Once
}

// New assembles an Engine from opts. When no prebuilt stream is given
// the engine constructs one over opts.Source using the stream tunables
// from opts.Config.
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	e := &Engine{
		logger:        logger,
		source:        opts.Source,
		stream:        opts.Stream,
		history:       opts.History,
		events:        opts.Events,
		targetFPS:     defaultTargetFPS,
		probeInterval: defaultProbeInterval,
		probeTimeout:  defaultProbeTimeout,
		modules:       make(map[string]module.Module),
		workflows:     make(map[string]Definition),
		done:          make(chan struct{}),
	}

	if cfg := opts.Config; cfg != nil {
		if cfg.Stream.TargetFPS > 0 {
			e.targetFPS = cfg.Stream.TargetFPS
		}
		if d := cfg.GetProbeInterval(); d > 0 {
			e.probeInterval = d
		}
		if d := cfg.GetProbeTimeout(); d > 0 {
			e.probeTimeout = d
		}
		e.stopTimeout = cfg.GetShutdownTimeout()
	}

	if e.stream == nil && e.source != nil {
		e.stream = stream.New(e.source, streamConfig(opts.Config))
		e.stream.SetLogger(logger)
	}

	return e
}

// streamConfig maps the stream section of the configuration onto the
// stream package's knobs.
func streamConfig(cfg *config.Config) stream.Config {
	if cfg == nil {
		return stream.Config{}
	}
	return stream.Config{
		HandlerBudget:    cfg.GetHandlerBudget(),
		MemoryAlertBytes: uint64(cfg.Stream.MemoryAlertMB) * 1024 * 1024,
		Retry: stream.RetryConfig{
			MaxAttempts:  cfg.Stream.Capture.MaxAttempts,
			InitialDelay: cfg.GetCaptureInitialDelay(),
			MaxDelay:     cfg.GetCaptureMaxDelay(),
		},
		Debug: stream.DumpConfig{
			Enabled:  cfg.Stream.Debug.Enabled,
			Interval: cfg.Stream.Debug.Interval,
			Dir:      cfg.Stream.Debug.Dir,
		},
	}
}

// Stream returns the capture stream the engine drives. Observers such as
// the vision frame cache and metrics sampling subscribe through it.
func (e *Engine) Stream() *stream.Stream { return e.stream }

// RegisterModule adds a module to the registry under its own name.
func (e *Engine) RegisterModule(m module.Module) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	name := m.Name()
	if _, ok := e.modules[name]; ok {
		return fmt.Errorf("%w: %s", ErrModuleExists, name)
	}
	e.modules[name] = m
	e.moduleOrder = append(e.moduleOrder, name)

	e.logger.Debug("module registered", "module", name)
	return nil
}

// RegisterWorkflow adds a named workflow definition. Every module the
// definition references must already be registered.
func (e *Engine) RegisterWorkflow(name string, def Definition) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if name == "" {
		return errors.New("engine: workflow name required")
	}
	if _, ok := e.workflows[name]; ok {
		return fmt.Errorf("%w: %s", ErrWorkflowExists, name)
	}
	for _, mod := range def.Modules {
		if _, ok := e.modules[mod]; !ok {
			return fmt.Errorf("%w: workflow %s requires %s", ErrModuleNotFound, name, mod)
		}
	}
	e.workflows[name] = def

	e.logger.Debug("workflow registered", "workflow", name, "modules", len(def.Modules))
	return nil
}

// Start probes the frame source until it is ready, then brings the
// capture stream up and begins watching it for fatal halts.
//
// The probe retries on the configured interval until the configured
// timeout elapses; a source that never becomes ready yields
// ErrSourceUnavailable. ctx cancellation aborts both the probe and the
// capture loop.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return ErrAlreadyStarted
	}
	e.started = true
	e.mu.Unlock()

	fail := func(err error) error {
		e.mu.Lock()
		e.started = false
		e.mu.Unlock()
		return err
	}

	if e.stream == nil {
		return fail(errors.New("engine: no frame source configured"))
	}

	if e.source != nil {
		if err := e.probeSource(ctx); err != nil {
			return fail(err)
		}
	}

	if err := e.stream.Start(ctx, e.targetFPS); err != nil {
		return fail(fmt.Errorf("starting stream: %w", err))
	}

	go e.watchStream()

	e.publish(Event{Type: EventEngineStarted})
	e.logger.Info("engine started", "target_fps", e.targetFPS)
	return nil
}

// probeSource attempts captures until one succeeds. Between failed
// attempts it waits out the probe interval; once the next attempt would
// land past the probe deadline it gives up.
func (e *Engine) probeSource(ctx context.Context) error {
	deadline := time.Now().Add(e.probeTimeout)
	attempt := 0
	var lastErr error

	for {
		attempt++
		_, err := e.source.Capture(ctx)
		if err == nil {
			e.logger.Info("frame source ready", "attempts", attempt)
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}

		e.logger.Warn("frame source not ready",
			"attempt", attempt,
			"error", lastErr)

		if time.Now().Add(e.probeInterval).After(deadline) {
			return fmt.Errorf("%w after %d attempts: %w", ErrSourceUnavailable, attempt, lastErr)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.probeInterval):
		}
	}
}

// watchStream waits for the capture loop to exit and signals Done when
// the exit was fatal. Clean stops pass through silently.
func (e *Engine) watchStream() {
	<-e.stream.Done()

	err := e.stream.Err()
	if err == nil {
		return
	}

	e.logger.Error("frame stream halted", "error", err)
	e.publish(Event{Type: EventStreamHalted, Err: err})
	e.haltOnce.Do(func() { close(e.done) })
}

// Done returns a channel closed when the frame stream halts fatally, so
// the host can initiate shutdown. It never closes on a clean Stop.
func (e *Engine) Done() <-chan struct{} { return e.done }

// Run executes the named workflow end-to-end: activate its modules, run
// the body, deactivate. Only one workflow runs at a time.
//
// Each run gets a fresh workflow instance and a unique run id that
// correlates the history record with the published lifecycle events. The
// returned error is the workflow's own outcome; history and event
// recording failures are logged, never returned.
func (e *Engine) Run(ctx context.Context, name string) error {
	e.mu.Lock()
	def, ok := e.workflows[name]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrWorkflowNotFound, name)
	}
	if e.currentName != "" {
		running := e.currentName
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrWorkflowRunning, running)
	}

	mods := make([]module.Module, len(def.Modules))
	for i, mod := range def.Modules {
		m, ok := e.modules[mod]
		if !ok {
			e.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrModuleNotFound, mod)
		}
		mods[i] = m
	}

	wf, err := workflow.New(workflow.Options{
		Name:    name,
		Modules: mods,
		Run:     def.Run,
		Timeout: def.Timeout,
		Logger:  e.logger,
	})
	if err != nil {
		e.mu.Unlock()
		return fmt.Errorf("building workflow %s: %w", name, err)
	}

	e.currentName = name
	e.currentWF = wf
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.currentName = ""
		e.currentWF = nil
		e.mu.Unlock()
	}()

	runID := "run-" + uuid.NewString()
	started := time.Now().UTC()

	rec := &history.Run{
		ID:           runID,
		Workflow:     name,
		StartedAt:    started,
		Status:       history.StatusRunning,
		ModulesTotal: len(mods),
	}
	if e.history != nil {
		if err := e.history.CreateRun(ctx, rec); err != nil {
			e.logger.Error("failed to record run start",
				"run_id", runID,
				"error", err)
		}
	}

	e.publish(Event{Type: EventRunStarted, Workflow: name, RunID: runID})
	e.logger.Info("workflow run started",
		"workflow", name,
		"run_id", runID,
		"modules", len(mods))

	runErr := wf.Execute(ctx)

	completed := time.Now().UTC()
	duration := int(completed.Sub(started).Milliseconds())
	rec.CompletedAt = &completed
	rec.DurationMS = &duration
	rec.Status = runStatus(runErr)
	if runErr != nil {
		msg := runErr.Error()
		rec.Error = &msg
	}
	rec.Failures = moduleFailures(runErr)
	rec.FailureCount = len(rec.Failures)

	if e.history != nil {
		// The final history write must survive the cancellation that
		// ended the run.
		if err := e.history.UpdateRun(context.WithoutCancel(ctx), rec); err != nil {
			e.logger.Error("failed to record run result",
				"run_id", runID,
				"error", err)
		}
	}

	switch rec.Status {
	case history.StatusCompleted:
		e.publish(Event{Type: EventRunCompleted, Workflow: name, RunID: runID, DurationMS: duration})
	case history.StatusCancelled:
		e.publish(Event{Type: EventRunCancelled, Workflow: name, RunID: runID, Err: runErr, DurationMS: duration})
	default:
		e.publish(Event{Type: EventRunFailed, Workflow: name, RunID: runID, Err: runErr, DurationMS: duration})
	}

	e.logger.Info("workflow run finished",
		"workflow", name,
		"run_id", runID,
		"status", string(rec.Status),
		"duration_ms", duration,
		"module_failures", rec.FailureCount)

	return runErr
}

// runStatus maps a workflow outcome onto a history status. Deadline
// expiry counts as cancellation: the run was cut short, it did not fail
// on its own terms.
func runStatus(err error) history.RunStatus {
	switch {
	case err == nil:
		return history.StatusCompleted
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return history.StatusCancelled
	default:
		return history.StatusFailed
	}
}

// moduleFailures extracts per-module failure details from the typed
// workflow errors, activation first.
func moduleFailures(err error) []history.ModuleFailure {
	if err == nil {
		return nil
	}

	var failures []history.ModuleFailure

	var actErr *workflow.ActivationError
	if errors.As(err, &actErr) {
		failures = append(failures, history.ModuleFailure{
			Module: actErr.Module,
			Phase:  "activate",
			Error:  actErr.Err.Error(),
		})
	}

	var deactErr *workflow.DeactivationError
	if errors.As(err, &deactErr) {
		for _, f := range deactErr.Failures {
			failures = append(failures, history.ModuleFailure{
				Module: f.Module,
				Phase:  "deactivate",
				Error:  f.Err.Error(),
			})
		}
	}

	return failures
}

// Shutdown stops the capture stream and releases every module the
// engine still holds active. Safe to call more than once; later calls
// return nil immediately.
//
// The configured stop timeout bounds the whole pass. A workflow left
// active gets a best-effort deactivation first, then any registered
// module still active outside it is released too. Every cleanup failure
// is collected and returned joined.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return nil
	}
	e.stopped = true
	wf := e.currentWF
	mods := make([]module.Module, 0, len(e.moduleOrder))
	for _, name := range e.moduleOrder {
		mods = append(mods, e.modules[name])
	}
	e.mu.Unlock()

	e.publish(Event{Type: EventEngineStopping})
	e.logger.Info("engine stopping")

	if e.stopTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.stopTimeout)
		defer cancel()
	}

	if e.stream != nil {
		e.stream.Stop()
	}

	var errs []error
	if wf != nil {
		if err := wf.DeactivateModules(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	// Modules activated outside the running workflow still get released.
	for _, m := range mods {
		if m.State() != module.StateActive {
			continue
		}
		if err := m.Deactivate(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		e.logger.Error("engine stopped with cleanup failures", "error", err)
		return err
	}

	e.logger.Info("engine stopped")
	return nil
}

// publish forwards an event to the sink, stamping the time. A nil sink
// drops events.
func (e *Engine) publish(ev Event) {
	if e.events == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	e.events.Publish(ev)
}
