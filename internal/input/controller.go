package input

import (
	"context"
	"fmt"
	"image"

	"golang.org/x/time/rate"

	"github.com/nerrad567/vigil-core/internal/infrastructure/config"
)

// Controller paces and bounds-checks input actions before handing them
// to a Driver.
//
// Two safety rails apply to every action:
//
//   - A token-bucket limiter enforces the configured minimum delay
//     between actions. Waits honour the caller's context, so a
//     cancelled workflow never sits in the limiter.
//   - Pointer targets must fall inside the configured safety rectangle.
//     Targets outside it fail with ErrOutOfBounds without reaching the
//     driver. An unset rectangle disables the check.
type Controller struct {
	driver  Driver
	limiter *rate.Limiter
	bounds  image.Rectangle
}

// New creates a controller over the given driver.
func New(driver Driver, cfg config.InputConfig) *Controller {
	minDelay := cfg.GetMinActionDelay()

	limit := rate.Inf
	if minDelay > 0 {
		limit = rate.Every(minDelay)
	}

	return &Controller{
		driver:  driver,
		limiter: rate.NewLimiter(limit, 1),
		bounds: image.Rect(
			cfg.Bounds.X,
			cfg.Bounds.Y,
			cfg.Bounds.X+cfg.Bounds.Width,
			cfg.Bounds.Y+cfg.Bounds.Height,
		),
	}
}

// MoveTo moves the pointer to p.
func (c *Controller) MoveTo(ctx context.Context, p image.Point) error {
	if err := c.checkBounds(p); err != nil {
		return err
	}
	if err := c.wait(ctx); err != nil {
		return err
	}
	return c.driver.MoveTo(p.X, p.Y)
}

// Click moves the pointer to p and clicks the given button there. The
// move and the click are separate actions; each takes a limiter slot.
func (c *Controller) Click(ctx context.Context, p image.Point, button Button) error {
	if err := c.MoveTo(ctx, p); err != nil {
		return err
	}
	if err := c.wait(ctx); err != nil {
		return err
	}
	return c.driver.Click(button)
}

// PressKey taps a named key.
func (c *Controller) PressKey(ctx context.Context, key string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	return c.driver.PressKey(key)
}

func (c *Controller) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for action slot: %w", err)
	}
	return nil
}

func (c *Controller) checkBounds(p image.Point) error {
	if c.bounds.Empty() {
		return nil
	}
	if !p.In(c.bounds) {
		return fmt.Errorf("%w: (%d, %d) not in %v", ErrOutOfBounds, p.X, p.Y, c.bounds)
	}
	return nil
}
