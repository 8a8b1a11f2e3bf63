package engine

import (
	"context"
	"time"
)

// Definition declares a workflow the engine can run. Module names are
// resolved against the engine's registry at registration time, and a
// fresh workflow instance is assembled from them for every run.
type Definition struct {
	// Modules lists the required modules by name, in activation order.
	Modules []string

	// Timeout bounds one run. Zero means no deadline.
	Timeout time.Duration

	// Run is the optional workflow body executed between activation and
	// deactivation.
	Run func(ctx context.Context) error
}
