package tracker

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/nerrad567/vigil-core/internal/infrastructure/config"
	"github.com/nerrad567/vigil-core/internal/module"
	"github.com/nerrad567/vigil-core/internal/stream"
	"github.com/nerrad567/vigil-core/internal/template"
	"github.com/nerrad567/vigil-core/internal/vision"
)

// fakeStream records subscriptions and hands frames to the handler.
type fakeStream struct {
	handler      stream.Handler
	subscribes   int
	unsubscribes int
}

func (s *fakeStream) Subscribe(_ string, handler stream.Handler) stream.Token {
	s.subscribes++
	s.handler = handler
	return stream.Token{}
}

func (s *fakeStream) Unsubscribe(_ stream.Token) {
	s.unsubscribes++
	s.handler = nil
}

func (s *fakeStream) deliver(frame *stream.Frame) {
	if s.handler != nil {
		s.handler(frame)
	}
}

// matchCall records one FindTemplate invocation.
type matchCall struct {
	tpl       image.Image
	region    image.Rectangle
	threshold float64
}

// fakeMatcher matches everything while matching is true.
type fakeMatcher struct {
	matching bool
	score    float64
	calls    []matchCall
}

func (m *fakeMatcher) FindTemplate(_ image.Image, tpl image.Image, region image.Rectangle, threshold float64) (vision.Match, bool) {
	m.calls = append(m.calls, matchCall{tpl: tpl, region: region, threshold: threshold})
	if !m.matching {
		return vision.Match{}, false
	}
	return vision.Match{
		Bounds: image.Rect(10, 10, 22, 20),
		Center: image.Pt(16, 15),
		Score:  m.score,
	}, true
}

// fakeStore serves fixed entries per category.
type fakeStore struct {
	categories map[string][]*template.Entry
	images     map[*template.Variant]image.Image
}

func (s *fakeStore) Category(name string) ([]*template.Entry, error) {
	entries, ok := s.categories[name]
	if !ok {
		return nil, template.ErrCategoryNotFound
	}
	return entries, nil
}

func (s *fakeStore) LoadImage(v *template.Variant) (image.Image, error) {
	img, ok := s.images[v]
	if !ok {
		return nil, errors.New("unexpected variant")
	}
	return img, nil
}

// testStore builds a store with one category holding one ground-label
// entry and one appearance-only entry.
func testStore() (*fakeStore, *template.Variant) {
	ground := &template.Variant{Path: "labels/orb.png", DetectionThreshold: 0.9}
	appearanceOnly := &template.Variant{Path: "items/tab.png", DetectionThreshold: 0.8}

	return &fakeStore{
		categories: map[string][]*template.Entry{
			"currency": {
				{Name: "orb", Category: "currency", GroundLabel: ground},
				{Name: "tab", Category: "currency", ItemAppearance: appearanceOnly},
			},
		},
		images: map[*template.Variant]image.Image{
			ground: image.NewRGBA(image.Rect(0, 0, 12, 10)),
		},
	}, ground
}

func testFrame(seq uint64) *stream.Frame {
	return &stream.Frame{
		Sequence:   seq,
		CapturedAt: time.Now(),
		Image:      image.NewRGBA(image.Rect(0, 0, 100, 80)),
	}
}

func newTestTracker(str *fakeStream, matcher *fakeMatcher, store *fakeStore) *Tracker {
	return New(str, matcher, store, config.TrackerConfig{
		Enabled:    true,
		Categories: []string{"currency"},
	})
}

func TestActivateLoadsTemplatesAndSubscribes(t *testing.T) {
	str := &fakeStream{}
	matcher := &fakeMatcher{matching: true, score: 0.95}
	store, _ := testStore()
	trk := newTestTracker(str, matcher, store)

	if err := trk.Activate(context.Background()); err != nil {
		t.Fatalf("failed to activate: %v", err)
	}
	if trk.State() != module.StateActive {
		t.Errorf("expected active state, got %s", trk.State())
	}
	if str.subscribes != 1 {
		t.Errorf("expected 1 subscription, got %d", str.subscribes)
	}

	// Only the ground-label entry becomes a matching target.
	str.deliver(testFrame(1))
	if len(matcher.calls) != 1 {
		t.Fatalf("expected 1 template matched per frame, got %d", len(matcher.calls))
	}

	detections := trk.Detections()
	if len(detections) != 1 {
		t.Fatalf("expected 1 detection, got %d", len(detections))
	}
	d := detections[0]
	if d.Template != "orb" || d.Category != "currency" {
		t.Errorf("unexpected detection identity %s/%s", d.Category, d.Template)
	}
	if d.Sequence != 1 {
		t.Errorf("expected sequence 1, got %d", d.Sequence)
	}
	if d.Match.Score != 0.95 {
		t.Errorf("expected score 0.95, got %v", d.Match.Score)
	}
}

func TestActivatePassesVariantThreshold(t *testing.T) {
	str := &fakeStream{}
	matcher := &fakeMatcher{matching: true, score: 0.95}
	store, ground := testStore()
	ground.DetectionThreshold = 0.87
	trk := newTestTracker(str, matcher, store)

	if err := trk.Activate(context.Background()); err != nil {
		t.Fatalf("failed to activate: %v", err)
	}
	str.deliver(testFrame(1))

	if len(matcher.calls) != 1 {
		t.Fatalf("expected 1 matcher call, got %d", len(matcher.calls))
	}
	if got := matcher.calls[0].threshold; got != 0.87 {
		t.Errorf("expected variant threshold 0.87, got %v", got)
	}
}

func TestActivateUnknownCategory(t *testing.T) {
	str := &fakeStream{}
	store, _ := testStore()
	trk := New(str, &fakeMatcher{}, store, config.TrackerConfig{
		Enabled:    true,
		Categories: []string{"maps"},
	})

	err := trk.Activate(context.Background())
	if !errors.Is(err, template.ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}
	if trk.State() != module.StateInactive {
		t.Errorf("expected module settled inactive, got %s", trk.State())
	}
	if str.subscribes != 0 {
		t.Errorf("expected no subscription after failed activation, got %d", str.subscribes)
	}
}

func TestOnFrameReplacesSnapshot(t *testing.T) {
	str := &fakeStream{}
	matcher := &fakeMatcher{matching: true, score: 0.9}
	store, _ := testStore()
	trk := newTestTracker(str, matcher, store)

	if err := trk.Activate(context.Background()); err != nil {
		t.Fatalf("failed to activate: %v", err)
	}

	str.deliver(testFrame(1))
	if got := len(trk.Detections()); got != 1 {
		t.Fatalf("expected 1 detection, got %d", got)
	}

	// The next frame sees nothing; the snapshot must empty out, not
	// accumulate stale sightings.
	matcher.matching = false
	str.deliver(testFrame(2))
	if got := len(trk.Detections()); got != 0 {
		t.Errorf("expected empty snapshot after miss, got %d", got)
	}
}

func TestDetectionsReturnsCopy(t *testing.T) {
	str := &fakeStream{}
	matcher := &fakeMatcher{matching: true, score: 0.9}
	store, _ := testStore()
	trk := newTestTracker(str, matcher, store)

	if err := trk.Activate(context.Background()); err != nil {
		t.Fatalf("failed to activate: %v", err)
	}
	str.deliver(testFrame(1))

	first := trk.Detections()
	first[0].Template = "tampered"

	second := trk.Detections()
	if second[0].Template != "orb" {
		t.Error("mutating the returned slice must not affect the snapshot")
	}
}

func TestDeactivateReleasesEverything(t *testing.T) {
	str := &fakeStream{}
	matcher := &fakeMatcher{matching: true, score: 0.9}
	store, _ := testStore()
	trk := newTestTracker(str, matcher, store)

	if err := trk.Activate(context.Background()); err != nil {
		t.Fatalf("failed to activate: %v", err)
	}
	str.deliver(testFrame(1))

	if err := trk.Deactivate(context.Background()); err != nil {
		t.Fatalf("failed to deactivate: %v", err)
	}
	if trk.State() != module.StateInactive {
		t.Errorf("expected inactive state, got %s", trk.State())
	}
	if str.unsubscribes != 1 {
		t.Errorf("expected 1 unsubscribe, got %d", str.unsubscribes)
	}
	if got := len(trk.Detections()); got != 0 {
		t.Errorf("expected detections released, got %d", got)
	}
}

func TestFrameDroppedWhenInactive(t *testing.T) {
	str := &fakeStream{}
	matcher := &fakeMatcher{matching: true, score: 0.9}
	store, _ := testStore()
	trk := newTestTracker(str, matcher, store)

	// Never activated: ProcessFrame must drop the frame before OnFrame.
	trk.ProcessFrame(testFrame(1))
	if len(matcher.calls) != 0 {
		t.Errorf("expected no matching while inactive, got %d calls", len(matcher.calls))
	}
}

func TestDisabledTrackerSkipsActivation(t *testing.T) {
	str := &fakeStream{}
	store, _ := testStore()
	trk := New(str, &fakeMatcher{}, store, config.TrackerConfig{
		Enabled:    false,
		Categories: []string{"currency"},
	})

	if err := trk.Activate(context.Background()); err != nil {
		t.Fatalf("disabled activation must succeed quietly: %v", err)
	}
	if trk.State() != module.StateInactive {
		t.Errorf("expected inactive state, got %s", trk.State())
	}
	if str.subscribes != 0 {
		t.Errorf("expected no subscription, got %d", str.subscribes)
	}
}

func TestRegionForwardedToMatcher(t *testing.T) {
	str := &fakeStream{}
	matcher := &fakeMatcher{matching: true, score: 0.9}
	store, _ := testStore()
	trk := New(str, matcher, store, config.TrackerConfig{
		Enabled:    true,
		Categories: []string{"currency"},
		Region:     config.RegionConfig{X: 10, Y: 20, Width: 300, Height: 200},
	})

	if err := trk.Activate(context.Background()); err != nil {
		t.Fatalf("failed to activate: %v", err)
	}
	str.deliver(testFrame(1))

	if len(matcher.calls) != 1 {
		t.Fatalf("expected 1 matcher call, got %d", len(matcher.calls))
	}
	want := image.Rect(10, 20, 310, 220)
	if got := matcher.calls[0].region; got != want {
		t.Errorf("expected region %v, got %v", want, got)
	}
}
