package source

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"sync"
)

// Synthetic default frame dimensions.
const (
	defaultWidth  = 1280
	defaultHeight = 720
)

// markerSize is the edge length of the moving marker square.
const markerSize = 24

var (
	syntheticBackground = color.RGBA{R: 30, G: 32, B: 36, A: 255}
	syntheticMarker     = color.RGBA{R: 235, G: 220, B: 92, A: 255}
)

// Synthetic generates deterministic frames: a flat background with a
// bright marker square that moves a fixed step per capture. Two
// instances with the same dimensions produce identical frame sequences,
// which makes captures reproducible in tests and demos.
type Synthetic struct {
	width  int
	height int

	mu   sync.Mutex
	tick uint64
}

// NewSynthetic creates a generator producing width x height frames.
// Non-positive dimensions fall back to the defaults.
func NewSynthetic(width, height int) *Synthetic {
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	return &Synthetic{width: width, height: height}
}

// Capture produces the next frame in the sequence.
func (s *Synthetic) Capture(ctx context.Context) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	tick := s.tick
	s.tick++
	s.mu.Unlock()

	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	draw.Draw(img, img.Bounds(), image.NewUniform(syntheticBackground), image.Point{}, draw.Src)

	spanX := s.width - markerSize
	if spanX < 1 {
		spanX = 1
	}
	spanY := s.height - markerSize
	if spanY < 1 {
		spanY = 1
	}
	x := int((tick * 7) % uint64(spanX))
	y := int((tick * 3) % uint64(spanY))

	marker := image.Rect(x, y, x+markerSize, y+markerSize).Intersect(img.Bounds())
	draw.Draw(img, marker, image.NewUniform(syntheticMarker), image.Point{}, draw.Src)

	return img, nil
}
