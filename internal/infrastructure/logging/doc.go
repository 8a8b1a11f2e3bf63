// Package logging configures structured logging for Vigil.
//
// # Purpose
//
// One logger construction path for the whole service, built on
// log/slog. The config decides format (JSON for machines, text for
// people), level, and destination; the logger stamps every entry with
// the service name and build version.
//
// # Usage
//
//	log := logging.New(cfg.Logging, version)
//	log.Info("engine started", "workflows", 1)
//
//	// Before config is available:
//	log := logging.Default()
//
// Subsystem loggers carry a component field:
//
//	streamLog := log.With("component", "stream")
//
// # Thread Safety
//
// Loggers are safe for concurrent use; With returns a new logger and
// never mutates the parent.
//
// Never log tokens or credentials. Truncate anything sensitive before
// it reaches a log call.
package logging
