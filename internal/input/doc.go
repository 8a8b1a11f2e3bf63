// Package input provides paced, bounds-checked input actions.
//
// # Purpose
//
// Workflows act on what vision finds by moving the pointer, clicking and
// pressing keys. This package separates the decision to act (workflow
// code) from the mechanics of acting (a platform Driver), and puts the
// safety rails between them: a minimum delay between actions and a
// rectangle outside which pointer targets are refused.
//
// # Usage
//
//	ctl := input.New(driver, cfg.Input)
//
//	if err := ctl.Click(ctx, match.Center, input.ButtonLeft); err != nil {
//	    return err
//	}
//
// The bundled NoopDriver discards all actions for dry runs:
//
//	ctl := input.New(input.NoopDriver{}, cfg.Input)
//
// # Thread Safety
//
// Controller methods are safe for concurrent use; the limiter serialises
// pacing across callers. Concurrent callers share the action budget.
package input
