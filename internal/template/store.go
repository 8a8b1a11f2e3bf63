package template

import (
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// metadataName is the metadata file expected inside a template directory.
const metadataName = "metadata.json"

// Store holds validated template metadata and caches decoded template
// images. Create one with Load; the zero value is not usable.
type Store struct {
	dir        string
	version    string
	categories map[string]map[string]*Entry

	imgMu  sync.Mutex
	images map[string]image.Image
}

// Load reads and validates dir/metadata.json.
//
// Every entry is annotated with its name and category from its position
// in the file. Returns ErrInvalidMetadata (listing all problems at once)
// when the file is malformed or fails validation; file read errors wrap
// the underlying cause.
func Load(dir string) (*Store, error) {
	path := filepath.Join(dir, metadataName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading template metadata: %w", err)
	}

	var meta metadataFile
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrInvalidMetadata, metadataName, err)
	}

	store := &Store{
		dir:        dir,
		version:    meta.Version,
		categories: meta.Templates,
		images:     make(map[string]image.Image),
	}

	for category, entries := range store.categories {
		for name, entry := range entries {
			if entry == nil {
				entry = &Entry{}
				entries[name] = entry
			}
			entry.Name = name
			entry.Category = category
		}
	}

	if err := store.Validate(); err != nil {
		return nil, err
	}
	return store, nil
}

// Version returns the metadata schema version string.
func (s *Store) Version() string {
	return s.version
}

// Get returns the named template, searching every category. Categories
// are searched in name order, so a name duplicated across categories
// resolves deterministically.
func (s *Store) Get(name string) (*Entry, error) {
	for _, category := range s.categoryNames() {
		if entry, ok := s.categories[category][name]; ok {
			return entry, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
}

// Category returns every template in the named category, sorted by name.
func (s *Store) Category(name string) ([]*Entry, error) {
	entries, ok := s.categories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCategoryNotFound, name)
	}

	names := make([]string, 0, len(entries))
	for n := range entries {
		names = append(names, n)
	}
	sort.Strings(names)

	out := make([]*Entry, 0, len(names))
	for _, n := range names {
		out = append(out, entries[n])
	}
	return out, nil
}

// Categories returns every category name, sorted.
func (s *Store) Categories() []string {
	return s.categoryNames()
}

// LoadImage decodes the variant's PNG asset, caching the result so
// repeated lookups during frame processing stay cheap. The cached image
// must be treated as read-only.
func (s *Store) LoadImage(v *Variant) (image.Image, error) {
	if v == nil {
		return nil, fmt.Errorf("template: load image: nil variant")
	}

	s.imgMu.Lock()
	defer s.imgMu.Unlock()

	if img, ok := s.images[v.Path]; ok {
		return img, nil
	}

	f, err := os.Open(filepath.Join(s.dir, v.Path))
	if err != nil {
		return nil, fmt.Errorf("opening template asset: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding template asset %s: %w", v.Path, err)
	}

	s.images[v.Path] = img
	return img, nil
}

func (s *Store) categoryNames() []string {
	names := make([]string, 0, len(s.categories))
	for name := range s.categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
