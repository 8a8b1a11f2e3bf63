// Package module defines the lifecycle contract for stream consumers.
//
// # Purpose
//
// A module is an independent consumer of the screenshot stream with its own
// activation state machine:
//
//	inactive → activating → active → deactivating → inactive
//
// Hook failures detour through a transient failed state and settle back to
// inactive, so a module never holds resources outside the active window.
//
// # Usage
//
// Concrete modules embed *Base and implement Hooks; Base drives the state
// machine and enforces transition legality:
//
//	type Tracker struct {
//	    *module.Base
//	}
//
//	func (t *Tracker) OnActivate(ctx context.Context) error  { ... }
//	func (t *Tracker) OnDeactivate(ctx context.Context) error { ... }
//	func (t *Tracker) OnFrame(f *stream.Frame)                { ... }
//
// # Thread Safety
//
// State transitions are serialised and ProcessFrame delivers at most one
// frame at a time. Modules hold no references to other modules; ordering
// requirements between them belong to the workflow that lists them.
package module
