package tracker

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/nerrad567/vigil-core/internal/infrastructure/config"
	"github.com/nerrad567/vigil-core/internal/module"
	"github.com/nerrad567/vigil-core/internal/stream"
	"github.com/nerrad567/vigil-core/internal/template"
	"github.com/nerrad567/vigil-core/internal/vision"
)

// Matcher finds template images in frames. Satisfied by *vision.Service.
type Matcher interface {
	FindTemplate(img image.Image, tpl image.Image, region image.Rectangle, threshold float64) (vision.Match, bool)
}

// TemplateSource provides template entries and their decoded images.
// Satisfied by *template.Store.
type TemplateSource interface {
	Category(name string) ([]*template.Entry, error)
	LoadImage(v *template.Variant) (image.Image, error)
}

// FrameStream is the subscription surface the tracker needs.
// Satisfied by *stream.Stream.
type FrameStream interface {
	Subscribe(name string, handler stream.Handler) stream.Token
	Unsubscribe(token stream.Token)
}

// Detection is one sighting of a tracked template in a frame.
type Detection struct {
	// Template and Category identify the metadata entry that matched.
	Template string
	Category string

	// Match locates the sighting in frame coordinates.
	Match vision.Match

	// Sequence and Seen tie the sighting to the frame that produced it.
	Sequence uint64
	Seen     time.Time
}

// target is one loaded template ready for matching.
type target struct {
	name      string
	category  string
	img       image.Image
	threshold float64
}

// Tracker watches the frame stream for the ground labels of its
// configured template categories and keeps a snapshot of what it sees.
//
// The tracker holds resources only while active: templates load on
// activation and the stream subscription is released on deactivation.
// Each processed frame fully replaces the detection snapshot, so
// consumers always see one frame's worth of truth, never an
// accumulation.
type Tracker struct {
	*module.Base

	str     FrameStream
	matcher Matcher
	store   TemplateSource
	cfg     config.TrackerConfig
	region  image.Rectangle

	mu         sync.RWMutex
	token      stream.Token
	targets    []target
	detections []Detection
}

// New creates the tracker module. All dependencies are required.
func New(str FrameStream, matcher Matcher, store TemplateSource, cfg config.TrackerConfig) *Tracker {
	t := &Tracker{
		str:     str,
		matcher: matcher,
		store:   store,
		cfg:     cfg,
		region: image.Rect(
			cfg.Region.X,
			cfg.Region.Y,
			cfg.Region.X+cfg.Region.Width,
			cfg.Region.Y+cfg.Region.Height,
		),
	}
	t.Base = module.NewBase("tracker", module.Config{Enabled: cfg.Enabled}, t)
	return t
}

// OnActivate loads the ground label images of every configured category
// and subscribes the tracker to the frame stream. Entries without a
// ground label variant are skipped; they have nothing to find in the
// wild.
func (t *Tracker) OnActivate(ctx context.Context) error {
	var targets []target
	for _, category := range t.cfg.Categories {
		if err := ctx.Err(); err != nil {
			return err
		}

		entries, err := t.store.Category(category)
		if err != nil {
			return fmt.Errorf("loading category %q: %w", category, err)
		}
		for _, entry := range entries {
			if entry.GroundLabel == nil {
				continue
			}
			img, err := t.store.LoadImage(entry.GroundLabel)
			if err != nil {
				return fmt.Errorf("loading template %q: %w", entry.Name, err)
			}
			targets = append(targets, target{
				name:      entry.Name,
				category:  entry.Category,
				img:       img,
				threshold: entry.GroundLabel.DetectionThreshold,
			})
		}
	}

	t.mu.Lock()
	t.targets = targets
	t.detections = nil
	t.token = t.str.Subscribe(t.Name(), t.ProcessFrame)
	t.mu.Unlock()

	return nil
}

// OnDeactivate unsubscribes from the stream before anything else, so no
// frame delivery can race the teardown, then releases the loaded
// templates and the detection snapshot.
func (t *Tracker) OnDeactivate(_ context.Context) error {
	t.mu.Lock()
	token := t.token
	t.token = stream.Token{}
	t.mu.Unlock()

	t.str.Unsubscribe(token)

	t.mu.Lock()
	t.targets = nil
	t.detections = nil
	t.mu.Unlock()

	return nil
}

// OnFrame matches every loaded template against the frame and replaces
// the detection snapshot with the result.
func (t *Tracker) OnFrame(frame *stream.Frame) {
	if frame == nil || frame.Image == nil {
		return
	}

	t.mu.RLock()
	targets := t.targets
	t.mu.RUnlock()

	detections := make([]Detection, 0, len(targets))
	for _, tgt := range targets {
		m, ok := t.matcher.FindTemplate(frame.Image, tgt.img, t.region, tgt.threshold)
		if !ok {
			continue
		}
		detections = append(detections, Detection{
			Template: tgt.name,
			Category: tgt.category,
			Match:    m,
			Sequence: frame.Sequence,
			Seen:     frame.CapturedAt,
		})
	}

	t.mu.Lock()
	t.detections = detections
	t.mu.Unlock()
}

// Detections returns a copy of the latest detection snapshot.
func (t *Tracker) Detections() []Detection {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Detection, len(t.detections))
	copy(out, t.detections)
	return out
}
