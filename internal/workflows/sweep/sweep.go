// Package sweep implements the detection sweep workflow.
//
// The sweep runs the tracker module and acts on what it sees: on every
// poll tick it reads the tracker's detection snapshot and, when input is
// wired, moves the pointer to the best detection. It keeps doing so
// until its context is cancelled or its configured timeout expires, so
// a sweep run is always ended from outside, never from within.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/nerrad567/vigil-core/internal/engine"
	"github.com/nerrad567/vigil-core/internal/infrastructure/config"
	"github.com/nerrad567/vigil-core/internal/input"
	"github.com/nerrad567/vigil-core/internal/modules/tracker"
)

// defaultPollInterval applies when the configured interval is not positive.
const defaultPollInterval = 250 * time.Millisecond

// Detector provides the current detection snapshot.
// Satisfied by *tracker.Tracker.
type Detector interface {
	Detections() []tracker.Detection
}

// Pointer moves the pointer to a target. Satisfied by *input.Controller.
type Pointer interface {
	MoveTo(ctx context.Context, p image.Point) error
}

// Logger interface for optional logging support.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}

// Definition builds the sweep workflow definition over the given tracker.
//
// The input controller is only engaged when one is provided and the
// configuration enables pointer movement; otherwise the sweep observes
// and logs. A nil logger is tolerated.
func Definition(trk *tracker.Tracker, ctl *input.Controller, cfg *config.Config, logger Logger) engine.Definition {
	var pointer Pointer
	if ctl != nil && cfg.Workflows.Sweep.MoveInput {
		pointer = ctl
	}

	return engine.Definition{
		Modules: []string{trk.Name()},
		Timeout: cfg.GetSweepTimeout(),
		Run:     runLoop(trk, pointer, cfg.GetSweepPollInterval(), logger),
	}
}

// runLoop returns the sweep body: poll, pick the best detection, act.
func runLoop(det Detector, pointer Pointer, interval time.Duration, logger Logger) func(ctx context.Context) error {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = nopLogger{}
	}

	return func(ctx context.Context) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}

			detections := det.Detections()
			if len(detections) == 0 {
				continue
			}

			best := bestDetection(detections)
			logger.Debug("sweep target",
				"template", best.Template,
				"score", best.Match.Score,
				"center", fmt.Sprintf("%d,%d", best.Match.Center.X, best.Match.Center.Y))

			if pointer == nil {
				continue
			}

			if err := pointer.MoveTo(ctx, best.Match.Center); err != nil {
				// Targets outside the safety bounds are expected near
				// screen edges; skip them and keep sweeping.
				if errors.Is(err, input.ErrOutOfBounds) {
					logger.Warn("sweep target out of bounds",
						"template", best.Template,
						"center", fmt.Sprintf("%d,%d", best.Match.Center.X, best.Match.Center.Y))
					continue
				}
				return fmt.Errorf("moving to %s: %w", best.Template, err)
			}
		}
	}
}

// bestDetection picks the highest-scoring detection. Earlier entries win
// ties, so the choice is stable for a given snapshot.
func bestDetection(detections []tracker.Detection) tracker.Detection {
	best := detections[0]
	for _, d := range detections[1:] {
		if d.Match.Score > best.Match.Score {
			best = d
		}
	}
	return best
}
