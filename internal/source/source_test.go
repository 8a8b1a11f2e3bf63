package source

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/nerrad567/vigil-core/internal/infrastructure/config"
)

func writeFrame(t *testing.T, dir, name string, c color.RGBA) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)

	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("creating frame file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encoding frame: %v", err)
	}
}

func TestSyntheticFrameSize(t *testing.T) {
	src := NewSynthetic(320, 200)

	img, err := src.Capture(context.Background())
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if got := img.Bounds(); got.Dx() != 320 || got.Dy() != 200 {
		t.Errorf("expected 320x200 frame, got %v", got)
	}
}

func TestSyntheticDefaultSize(t *testing.T) {
	src := NewSynthetic(0, 0)

	img, err := src.Capture(context.Background())
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if got := img.Bounds(); got.Dx() != 1280 || got.Dy() != 720 {
		t.Errorf("expected default 1280x720 frame, got %v", got)
	}
}

func TestSyntheticDeterministic(t *testing.T) {
	a := NewSynthetic(160, 120)
	b := NewSynthetic(160, 120)

	for i := 0; i < 3; i++ {
		fa, err := a.Capture(context.Background())
		if err != nil {
			t.Fatalf("capture failed: %v", err)
		}
		fb, err := b.Capture(context.Background())
		if err != nil {
			t.Fatalf("capture failed: %v", err)
		}
		if !bytes.Equal(fa.Pix, fb.Pix) {
			t.Fatalf("frame %d differs between identical generators", i)
		}
	}
}

func TestSyntheticMarkerMoves(t *testing.T) {
	src := NewSynthetic(160, 120)

	first, err := src.Capture(context.Background())
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	second, err := src.Capture(context.Background())
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}

	if bytes.Equal(first.Pix, second.Pix) {
		t.Error("expected consecutive frames to differ")
	}
}

func TestSyntheticHonoursContext(t *testing.T) {
	src := NewSynthetic(64, 64)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := src.Capture(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestReplayCycles(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, dir, "01.png", color.RGBA{R: 200, A: 255})
	writeFrame(t, dir, "02.png", color.RGBA{G: 200, A: 255})
	writeFrame(t, dir, "03.png", color.RGBA{B: 200, A: 255})

	src, err := NewReplay(dir)
	if err != nil {
		t.Fatalf("creating replay source: %v", err)
	}
	if src.Len() != 3 {
		t.Fatalf("expected 3 frames, got %d", src.Len())
	}

	wantRed := []uint8{200, 0, 0, 200}
	for i, want := range wantRed {
		img, captureErr := src.Capture(context.Background())
		if captureErr != nil {
			t.Fatalf("capture %d failed: %v", i, captureErr)
		}
		if got := img.RGBAAt(0, 0).R; got != want {
			t.Errorf("capture %d: expected red channel %d, got %d", i, want, got)
		}
	}
}

func TestReplayIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, dir, "frame.png", color.RGBA{R: 10, A: 255})
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("writing stray file: %v", err)
	}
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatalf("creating nested dir: %v", err)
	}

	src, err := NewReplay(dir)
	if err != nil {
		t.Fatalf("creating replay source: %v", err)
	}
	if src.Len() != 1 {
		t.Errorf("expected 1 frame, got %d", src.Len())
	}
}

func TestReplayEmptyDir(t *testing.T) {
	if _, err := NewReplay(t.TempDir()); !errors.Is(err, ErrNoFrames) {
		t.Errorf("expected ErrNoFrames, got %v", err)
	}
}

func TestReplayMissingDir(t *testing.T) {
	if _, err := NewReplay(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("expected an error for a missing directory")
	}
}

func TestReplayHonoursContext(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, dir, "frame.png", color.RGBA{R: 10, A: 255})

	src, err := NewReplay(dir)
	if err != nil {
		t.Fatalf("creating replay source: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := src.Capture(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestNewSelectsByType(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, dir, "frame.png", color.RGBA{R: 10, A: 255})

	src, err := New(config.SourceConfig{Type: "synthetic", Width: 64, Height: 64})
	if err != nil {
		t.Fatalf("synthetic: %v", err)
	}
	if _, ok := src.(*Synthetic); !ok {
		t.Errorf("expected *Synthetic, got %T", src)
	}

	src, err = New(config.SourceConfig{Type: "replay", ReplayDir: dir})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if _, ok := src.(*Replay); !ok {
		t.Errorf("expected *Replay, got %T", src)
	}

	if _, err := New(config.SourceConfig{Type: "window"}); !errors.Is(err, ErrUnknownType) {
		t.Errorf("expected ErrUnknownType, got %v", err)
	}
}
