package source

import "errors"

var (
	// ErrUnknownType is returned by New for an unrecognised source type.
	ErrUnknownType = errors.New("source: unknown source type")

	// ErrNoFrames is returned when a replay directory holds no PNG files.
	ErrNoFrames = errors.New("source: no png frames in replay directory")
)
