// Package tracker implements the template tracking module.
//
// The tracker is the reference consumer of the module contract: it
// acquires everything it needs in OnActivate (template images, a stream
// subscription), does bounded per-frame work in OnFrame, and releases
// everything in OnDeactivate. Workflows read its detection snapshot
// through Detections() and decide what to do about it; the tracker
// itself never acts.
package tracker
