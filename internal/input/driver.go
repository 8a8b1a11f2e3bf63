package input

// Button identifies a pointer button.
type Button string

// Pointer buttons accepted by Click.
const (
	ButtonLeft  Button = "left"
	ButtonRight Button = "right"
)

// Driver performs the actual input actions against the platform.
//
// Implementations live outside this package; the controller only adds
// pacing and bounds safety on top. Drivers are called from at most one
// goroutine at a time per controller method call chain, but should not
// assume a single caller overall.
type Driver interface {
	// MoveTo positions the pointer at absolute screen coordinates.
	MoveTo(x, y int) error

	// Click presses and releases the given button at the current
	// pointer position.
	Click(button Button) error

	// PressKey taps a single named key ("f", "escape", "space").
	PressKey(key string) error
}

// NoopDriver discards every action. It stands in wherever no platform
// driver is wired, keeping workflows runnable in dry-run setups.
type NoopDriver struct{}

func (NoopDriver) MoveTo(int, int) error { return nil }

func (NoopDriver) Click(Button) error { return nil }

func (NoopDriver) PressKey(string) error { return nil }
