package stream

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
)

// maybeDump writes the frame to the debug directory when dumps are enabled
// and the sequence lands on the configured interval. Dump failures are
// logged and otherwise ignored; diagnostics never interrupt capture.
func (s *Stream) maybeDump(frame *Frame) {
	if !s.cfg.Debug.Enabled || s.cfg.Debug.Interval < 1 {
		return
	}
	if frame.Sequence%uint64(s.cfg.Debug.Interval) != 0 {
		return
	}

	if err := s.dumpFrame(frame); err != nil {
		s.logger.Warn("debug frame dump failed",
			"sequence", frame.Sequence,
			"error", err)
	}
}

func (s *Stream) dumpFrame(frame *Frame) error {
	if err := os.MkdirAll(s.cfg.Debug.Dir, 0o750); err != nil {
		return fmt.Errorf("creating debug dir: %w", err)
	}

	name := fmt.Sprintf("frame_%08d.png", frame.Sequence)
	f, err := os.Create(filepath.Join(s.cfg.Debug.Dir, name))
	if err != nil {
		return fmt.Errorf("creating dump file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, frame.Image); err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}

	return nil
}
