package source

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Replay serves PNG files from a directory as frames, cycling back to
// the first file after the last. Files are ordered by name, so a
// zero-padded naming scheme replays in capture order.
//
// Frames are decoded on every capture rather than cached; a replay
// directory can be larger than memory.
type Replay struct {
	files []string

	mu   sync.Mutex
	next int
}

// NewReplay scans dir for PNG files. Directories with none are rejected
// up front with ErrNoFrames rather than failing on the first capture.
func NewReplay(dir string) (*Replay, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading replay directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".png") {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFrames, dir)
	}
	sort.Strings(files)

	return &Replay{files: files}, nil
}

// Len returns the number of frames in the cycle.
func (r *Replay) Len() int { return len(r.files) }

// Capture decodes and returns the next frame in the cycle.
func (r *Replay) Capture(ctx context.Context) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	path := r.files[r.next]
	r.next = (r.next + 1) % len(r.files)
	r.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening frame %s: %w", path, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding frame %s: %w", path, err)
	}
	return toRGBA(img), nil
}

// toRGBA converts a decoded image to the stream's frame format without
// copying when the decoder already produced one.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, img, b.Min, draw.Src)
	return out
}
