package template

import (
	"fmt"
	"sort"
	"strings"
)

// Validate checks the loaded metadata and reports every problem found,
// not just the first. Returns nil when the metadata is sound, otherwise
// an error wrapping ErrInvalidMetadata whose text lists each problem.
func (s *Store) Validate() error {
	var problems []string

	if s.version == "" {
		problems = append(problems, "version is required")
	}
	if s.categories == nil {
		problems = append(problems, "templates section is required")
	}

	for _, category := range s.categoryNames() {
		for _, entry := range sortedEntries(s.categories[category]) {
			problems = append(problems, validateEntry(category, entry)...)
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidMetadata, strings.Join(problems, "; "))
	}
	return nil
}

func validateEntry(category string, entry *Entry) []string {
	var problems []string
	ref := fmt.Sprintf("%s/%s", category, entry.Name)

	if entry.GroundLabel == nil && entry.ItemAppearance == nil {
		problems = append(problems, fmt.Sprintf("%s: no variants defined", ref))
	}
	if entry.GroundLabel != nil {
		problems = append(problems, validateVariant(ref+" ground_label", entry.GroundLabel)...)
	}
	if entry.ItemAppearance != nil {
		problems = append(problems, validateVariant(ref+" item_appearance", entry.ItemAppearance)...)
	}
	return problems
}

func validateVariant(ref string, v *Variant) []string {
	var problems []string

	if v.Path == "" {
		problems = append(problems, ref+": path is required")
	}
	if v.DetectionThreshold < 0 || v.DetectionThreshold > 1 {
		problems = append(problems, fmt.Sprintf("%s: detection_threshold %v not in [0, 1]", ref, v.DetectionThreshold))
	}
	if v.ColorRange != nil {
		problems = append(problems, validateColorRange(ref, v.ColorRange)...)
	}
	if v.GridSize != nil {
		if len(v.GridSize) != 2 {
			problems = append(problems, fmt.Sprintf("%s: grid_size must be [width, height]", ref))
		} else if v.GridSize[0] < 1 || v.GridSize[1] < 1 {
			problems = append(problems, fmt.Sprintf("%s: grid_size dimensions must be positive", ref))
		}
	}
	return problems
}

func validateColorRange(ref string, cr *ColorRange) []string {
	var problems []string
	bands := []struct {
		name   string
		values []float64
	}{
		{"hue", cr.Hue},
		{"saturation", cr.Saturation},
		{"value", cr.Value},
	}

	for _, band := range bands {
		if len(band.values) != 2 {
			problems = append(problems, fmt.Sprintf("%s: color_range.%s must be [low, high]", ref, band.name))
			continue
		}
		if band.values[0] > band.values[1] {
			problems = append(problems, fmt.Sprintf("%s: color_range.%s low exceeds high", ref, band.name))
		}
	}
	return problems
}

// sortedEntries returns the entries of one category in name order so
// validation output is stable.
func sortedEntries(entries map[string]*Entry) []*Entry {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*Entry, 0, len(names))
	for _, name := range names {
		out = append(out, entries[name])
	}
	return out
}
