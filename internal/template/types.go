package template

// Entry is one named template with its detection variants. At least one
// variant must be present. Name and Category are filled from the entry's
// position in metadata.json.
type Entry struct {
	Name     string `json:"-"`
	Category string `json:"-"`

	// GroundLabel describes the template as it appears lying on the
	// ground (a text label), if it does.
	GroundLabel *Variant `json:"ground_label,omitempty"`

	// ItemAppearance describes the template as it appears in a grid
	// container, if it does.
	ItemAppearance *Variant `json:"item_appearance,omitempty"`
}

// Variant describes one way a template appears on screen.
type Variant struct {
	// Path is the template image location relative to the store
	// directory.
	Path string `json:"path"`

	// DetectionThreshold is the minimum match score for this variant.
	// Zero defers to the vision service's configured default.
	DetectionThreshold float64 `json:"detection_threshold"`

	// ColorRange optionally narrows matching to an HSV band.
	ColorRange *ColorRange `json:"color_range,omitempty"`

	// GridSize is the footprint in container cells as [width, height].
	// Only meaningful for item appearances.
	GridSize []int `json:"grid_size,omitempty"`
}

// ColorRange is an HSV band. Each component holds [low, high].
type ColorRange struct {
	Hue        []float64 `json:"hue"`
	Saturation []float64 `json:"saturation"`
	Value      []float64 `json:"value"`
}

// metadataFile is the on-disk shape of metadata.json.
type metadataFile struct {
	Version   string                       `json:"version"`
	Templates map[string]map[string]*Entry `json:"templates"`
}
