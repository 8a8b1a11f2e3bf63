// Package engine orchestrates Vigil Core: it owns the frame stream,
// registers modules and workflow definitions, and executes one workflow
// at a time while recording and broadcasting the outcome.
//
// # Purpose
//
// The engine is the only component that ties the layers together. It
// probes the frame source until it is ready, drives the capture stream,
// resolves workflow definitions against the module registry, and wraps
// every run with history records and lifecycle events. Modules and
// capabilities never see the engine; they are handed to it.
//
// # Usage
//
//	eng := engine.New(engine.Options{
//	    Config:  cfg,
//	    Logger:  logger,
//	    Source:  src,
//	    History: store,
//	    Events:  publisher,
//	})
//
//	eng.RegisterModule(trk)
//	eng.RegisterWorkflow("sweep", sweep.Definition(trk, ctl, cfg, logger))
//
//	if err := eng.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Shutdown(context.Background())
//
//	err := eng.Run(ctx, "sweep")
//
// # Lifecycle
//
// Start is not Run: Start brings the shared stream up and leaves the
// engine idle; each Run activates the named workflow's modules, executes
// its body, and deactivates them again. A fatal stream halt closes
// Done() so the host can decide to shut down; a clean Stop never does.
//
// # Thread Safety
//
// All exported methods are safe for concurrent use. Run claims
// exclusivity per call; a second Run while one is active fails with
// ErrWorkflowRunning rather than queueing.
package engine
