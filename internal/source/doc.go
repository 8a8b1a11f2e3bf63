// Package source provides the frame sources Vigil Core can stream from
// without touching an operating system capture API: a deterministic
// synthetic generator and a PNG directory replayer.
//
// Real capture backends live outside this repository; anything that
// implements stream.Source plugs into the same engine. New selects an
// implementation from the source section of the configuration.
package source
