package stream

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Source produces raw frames for the stream.
//
// Capture is called from the capture loop goroutine only, never
// concurrently. Implementations should honour ctx cancellation for
// captures that can block.
type Source interface {
	Capture(ctx context.Context) (*image.RGBA, error)
}

// Handler receives one frame per distribution cycle.
//
// Handlers run synchronously on the capture loop goroutine, one subscriber
// at a time in subscription order. A handler that blocks delays every
// subscriber after it and the next capture; keep handlers short and move
// heavy work elsewhere.
type Handler func(*Frame)

// Token identifies a subscription for later removal.
type Token struct {
	id uint64
}

// Config contains stream tuning knobs. The zero value is usable for tests;
// zero retry fields fall back to a single capture attempt and zero budget
// disables slow-delivery accounting.
type Config struct {
	// HandlerBudget is the per-subscriber delivery budget. Handlers that
	// run longer are counted in Metrics.SlowDeliveries and logged; they
	// are never forcibly stopped.
	HandlerBudget time.Duration

	// MemoryAlertBytes logs a warning when the frame buffer estimate
	// crosses above this size. Zero disables the alert.
	MemoryAlertBytes uint64

	Retry RetryConfig
	Debug DumpConfig
}

// RetryConfig bounds capture retries within one scheduled tick.
type RetryConfig struct {
	// MaxAttempts is the total number of capture attempts per tick.
	MaxAttempts int

	// InitialDelay is the wait before the second attempt. Each further
	// attempt doubles the wait, capped at MaxDelay.
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DumpConfig controls periodic debug frame dumps.
type DumpConfig struct {
	Enabled  bool
	Interval int // Dump every Nth frame
	Dir      string
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// subscriber is one registered handler. The per-subscriber mutex serialises
// delivery against Unsubscribe: whoever holds it owns the active flag, so
// once Unsubscribe flips it no further delivery can begin.
type subscriber struct {
	id      uint64
	name    string
	handler Handler

	mu     sync.Mutex
	active bool
}

// Stream captures frames from a Source on a fixed-period schedule and
// fans each frame out to every subscriber synchronously.
//
// Scheduling runs on a fixed tick grid derived from the target rate. When
// a cycle overruns its period the missed ticks are skipped, never queued:
// subscribers always see the freshest capture, and each skipped tick is
// recorded in Metrics.DroppedFrames.
//
// Thread Safety:
//   - All exported methods are safe for concurrent use.
//   - Unsubscribe must not be called from the handler it names; it blocks
//     until any in-flight delivery to that handler returns.
type Stream struct {
	source Source
	cfg    Config

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	haltErr error

	subsMu sync.RWMutex
	subs   []*subscriber
	nextID uint64

	// seq is the frame sequence counter. Owned by the capture loop while
	// running; monotonic across stop/start cycles.
	seq uint64

	counters counters

	// memAlerted tracks whether the current threshold crossing was already
	// logged. Loop-owned.
	memAlerted bool

	logger Logger
}

// New creates a Stream over the given source. The stream does not capture
// until Start is called.
func New(source Source, cfg Config) *Stream {
	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry.MaxAttempts = 1
	}
	return &Stream{
		source: source,
		cfg:    cfg,
		logger: nopLogger{},
	}
}

// SetLogger sets a logger for capture and delivery diagnostics.
// Pass nil to restore the no-op default. Not safe to call after Start.
func (s *Stream) SetLogger(logger Logger) {
	if logger == nil {
		logger = nopLogger{}
	}
	s.logger = logger
}

// Start begins the capture loop at the given target rate.
//
// Returns ErrAlreadyStarted if the loop is already running (including a
// loop that halted fatally but has not been stopped yet), and
// ErrInvalidRate for rates below one frame per second.
//
// The loop stops when ctx is cancelled, Stop is called, or capture retries
// are exhausted. In the fatal case Done() is closed and Err() reports the
// cause.
func (s *Stream) Start(ctx context.Context, targetFPS int) error {
	if targetFPS < 1 {
		return fmt.Errorf("%w: %d fps", ErrInvalidRate, targetFPS)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyStarted
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	s.done = make(chan struct{})
	s.haltErr = nil

	go s.loop(loopCtx, time.Second/time.Duration(targetFPS))

	return nil
}

// Stop halts capture, waits for any in-flight distribution cycle to finish,
// and releases every subscription. Safe to call multiple times and safe to
// call on a stream that was never started.
func (s *Stream) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	cancel()
	<-done

	// Loop is gone; release all subscriptions so handlers cannot be
	// reached through stale tokens after restart.
	s.subsMu.Lock()
	subs := s.subs
	s.subs = nil
	s.subsMu.Unlock()

	for _, sub := range subs {
		sub.mu.Lock()
		sub.active = false
		sub.mu.Unlock()
	}
}

// Subscribe registers a handler under a subscriber name. Delivery begins
// with the next captured frame. The name appears in logs and slow-delivery
// warnings; it does not need to be unique.
func (s *Stream) Subscribe(name string, handler Handler) Token {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	s.nextID++
	sub := &subscriber{
		id:      s.nextID,
		name:    name,
		handler: handler,
		active:  true,
	}
	s.subs = append(s.subs, sub)

	return Token{id: sub.id}
}

// Unsubscribe removes the subscription identified by token. When it
// returns, no further frame will be delivered to the handler. Unknown or
// already-removed tokens are ignored.
//
// Must not be called from inside the handler being removed.
func (s *Stream) Unsubscribe(token Token) {
	s.subsMu.Lock()
	var target *subscriber
	for i, sub := range s.subs {
		if sub.id == token.id {
			target = sub
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			break
		}
	}
	s.subsMu.Unlock()

	if target == nil {
		return
	}

	// Taking the subscriber mutex waits out any delivery already in
	// progress; clearing active stops a delivery that snapshotted the
	// list before the removal above.
	target.mu.Lock()
	target.active = false
	target.mu.Unlock()
}

// Subscribers returns the number of active subscriptions.
func (s *Stream) Subscribers() int {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	return len(s.subs)
}

// Metrics returns a snapshot of stream health counters. Never blocks on
// the capture loop.
func (s *Stream) Metrics() Metrics {
	m := s.counters.snapshot()
	m.Subscribers = s.Subscribers()
	return m
}

// Done returns a channel closed when the capture loop exits, whether by
// Stop, context cancellation, or fatal capture failure. Valid after Start;
// before the first Start it returns nil, which blocks forever in a select.
func (s *Stream) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Err returns the fatal error that halted the capture loop, or nil if the
// loop is running or exited cleanly. Check after Done() is closed.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.haltErr
}

// ─── Capture loop ───

func (s *Stream) loop(ctx context.Context, period time.Duration) {
	defer func() {
		s.mu.Lock()
		close(s.done)
		s.mu.Unlock()
	}()

	// The tick grid is anchored at start time; the first capture fires
	// immediately.
	next := time.Now()
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		img, captureDur, err := s.captureWithRetry(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.halt(err)
			return
		}

		s.seq++
		frame := &Frame{
			Sequence:   s.seq,
			CapturedAt: time.Now(),
			Image:      img,
			Latency:    captureDur,
			TraceID:    "frm-" + uuid.NewString()[:16],
		}

		distStart := time.Now()
		s.deliver(frame)
		distDur := time.Since(distStart)

		memBytes := uint64(len(img.Pix))
		s.counters.recordCycle(captureDur, distDur, memBytes)
		s.checkMemoryAlert(memBytes)
		s.maybeDump(frame)

		// Back onto the grid. Ticks whose deadline passed while this
		// cycle ran are skipped, not queued.
		now := time.Now()
		missed := int64(now.Sub(next) / period)
		if missed > 0 {
			s.counters.addDropped(uint64(missed))
			s.logger.Debug("cycle overran period, skipping ticks",
				"missed", missed,
				"sequence", frame.Sequence,
				"cycle", distDur+captureDur)
		}
		next = next.Add(time.Duration(missed+1) * period)
		timer.Reset(time.Until(next))
	}
}

// captureWithRetry attempts a capture with exponential backoff. A nil error
// from ctx mid-retry aborts without producing a fatal error; exhausting
// MaxAttempts returns ErrCaptureExhausted wrapping the final cause.
func (s *Stream) captureWithRetry(ctx context.Context) (*image.RGBA, time.Duration, error) {
	delay := s.cfg.Retry.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= s.cfg.Retry.MaxAttempts; attempt++ {
		start := time.Now()
		img, err := s.source.Capture(ctx)
		if err == nil {
			return img, time.Since(start), nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}

		s.logger.Warn("capture attempt failed",
			"attempt", attempt,
			"max_attempts", s.cfg.Retry.MaxAttempts,
			"error", err)

		if attempt < s.cfg.Retry.MaxAttempts && delay > 0 {
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if s.cfg.Retry.MaxDelay > 0 && delay > s.cfg.Retry.MaxDelay {
				delay = s.cfg.Retry.MaxDelay
			}
		}
	}

	return nil, 0, fmt.Errorf("%w after %d attempts: %w",
		ErrCaptureExhausted, s.cfg.Retry.MaxAttempts, lastErr)
}

// deliver fans the frame out to every subscriber active at cycle start,
// in subscription order.
func (s *Stream) deliver(frame *Frame) {
	s.subsMu.RLock()
	subs := make([]*subscriber, len(s.subs))
	copy(subs, s.subs)
	s.subsMu.RUnlock()

	for _, sub := range subs {
		sub.mu.Lock()
		if !sub.active {
			sub.mu.Unlock()
			continue
		}
		start := time.Now()
		s.invoke(sub, frame)
		elapsed := time.Since(start)
		sub.mu.Unlock()

		if s.cfg.HandlerBudget > 0 && elapsed > s.cfg.HandlerBudget {
			s.counters.addSlow()
			s.logger.Warn("subscriber exceeded delivery budget",
				"subscriber", sub.name,
				"elapsed", elapsed,
				"budget", s.cfg.HandlerBudget,
				"sequence", frame.Sequence)
		}
	}
}

// invoke runs one handler with panic isolation so a broken subscriber
// cannot take down the capture loop.
func (s *Stream) invoke(sub *subscriber, frame *Frame) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("subscriber panicked during delivery",
				"subscriber", sub.name,
				"sequence", frame.Sequence,
				"panic", r)
		}
	}()
	sub.handler(frame)
}

func (s *Stream) checkMemoryAlert(memBytes uint64) {
	if s.cfg.MemoryAlertBytes == 0 {
		return
	}
	if memBytes > s.cfg.MemoryAlertBytes {
		if !s.memAlerted {
			s.memAlerted = true
			s.logger.Warn("frame memory estimate above alert threshold",
				"estimate_bytes", memBytes,
				"threshold_bytes", s.cfg.MemoryAlertBytes)
		}
		return
	}
	s.memAlerted = false
}

func (s *Stream) halt(err error) {
	s.mu.Lock()
	s.haltErr = err
	s.mu.Unlock()

	s.logger.Error("capture loop halted", "error", err)
}
