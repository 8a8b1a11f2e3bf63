package vision

import (
	"context"
	"image"
	"sync"

	"github.com/nerrad567/vigil-core/internal/infrastructure/config"
	"github.com/nerrad567/vigil-core/internal/stream"
)

// defaultMatchThreshold is used when the configured threshold is out of range.
const defaultMatchThreshold = 0.8

// TextReader extracts text from an image. Implementations wrap an OCR
// engine; the service itself performs no text recognition.
type TextReader interface {
	ReadText(ctx context.Context, img image.Image) (string, error)
}

// Service provides template matching and text extraction over frames.
//
// The service caches the most recent frame delivered by the stream it is
// attached to. Matching operations accept an explicit image and fall back
// to the cached frame when given nil, mirroring how modules usually work:
// they receive a frame in their handler and pass it straight in.
type Service struct {
	threshold float64

	mu     sync.RWMutex
	stream *stream.Stream
	token  stream.Token
	frame  *stream.Frame

	readerMu sync.RWMutex
	reader   TextReader
}

// New creates a vision service. The configured match threshold is used
// whenever a caller passes a threshold <= 0; out-of-range configuration
// falls back to the package default.
func New(cfg config.VisionConfig) *Service {
	threshold := cfg.MatchThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = defaultMatchThreshold
	}
	return &Service{threshold: threshold}
}

// Attach subscribes the service to a frame stream so it can cache the
// latest frame. Attaching while already attached is a no-op; Detach first
// to move the service to another stream.
func (s *Service) Attach(str *stream.Stream) {
	if str == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream != nil {
		return
	}
	s.stream = str
	s.token = str.Subscribe("vision", s.onFrame)
}

// Detach unsubscribes the service from its stream. The cached frame is
// kept so matching keeps working on the last known image.
func (s *Service) Detach() {
	s.mu.Lock()
	str := s.stream
	token := s.token
	s.stream = nil
	s.token = stream.Token{}
	s.mu.Unlock()

	if str != nil {
		str.Unsubscribe(token)
	}
}

// Frame returns the most recent cached frame, or nil if none has been
// delivered yet.
func (s *Service) Frame() *stream.Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame
}

// SetTextReader configures the OCR collaborator used by ReadRegion.
// Passing nil removes the reader.
func (s *Service) SetTextReader(r TextReader) {
	s.readerMu.Lock()
	s.reader = r
	s.readerMu.Unlock()
}

// ReadRegion extracts text from a region of the latest cached frame.
//
// The region is clamped to the frame bounds; an empty region means the
// whole frame. Returns ErrNoTextReader when no reader is configured and
// ErrNoFrame when no frame has been cached yet. Reader errors propagate
// unmodified so callers can inspect them.
func (s *Service) ReadRegion(ctx context.Context, region image.Rectangle) (string, error) {
	s.readerMu.RLock()
	reader := s.reader
	s.readerMu.RUnlock()
	if reader == nil {
		return "", ErrNoTextReader
	}

	frame := s.Frame()
	if frame == nil || frame.Image == nil {
		return "", ErrNoFrame
	}

	crop := clampRegion(region, frame.Image.Bounds())
	return reader.ReadText(ctx, frame.Image.SubImage(crop))
}

func (s *Service) onFrame(frame *stream.Frame) {
	s.mu.Lock()
	s.frame = frame
	s.mu.Unlock()
}

// clampRegion intersects region with bounds. An empty region selects the
// full bounds, so zero-value rectangles mean "everywhere".
func clampRegion(region, bounds image.Rectangle) image.Rectangle {
	if region.Empty() {
		return bounds
	}
	return region.Intersect(bounds)
}
