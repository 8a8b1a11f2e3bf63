package source

import (
	"fmt"

	"github.com/nerrad567/vigil-core/internal/infrastructure/config"
	"github.com/nerrad567/vigil-core/internal/stream"
)

// New builds the frame source selected by cfg.Type.
func New(cfg config.SourceConfig) (stream.Source, error) {
	switch cfg.Type {
	case "synthetic":
		return NewSynthetic(cfg.Width, cfg.Height), nil
	case "replay":
		return NewReplay(cfg.ReplayDir)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, cfg.Type)
	}
}
