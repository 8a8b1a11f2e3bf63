// Package template manages the on-disk template library.
//
// # Purpose
//
// A template directory pairs a metadata.json with PNG assets. The
// metadata groups named templates into categories; each template
// describes how it appears on screen through one or two variants
// (ground_label, item_appearance) carrying the asset path, a detection
// threshold and optional colour/grid hints. Modules load the categories
// they care about and hand the images to the vision service.
//
// # Layout
//
//	templates/
//	  metadata.json
//	  labels/chaos_orb.png
//	  items/chaos_orb.png
//
// # Usage
//
//	store, err := template.Load(cfg.Templates.Dir)
//	if err != nil {
//	    return err
//	}
//
//	entries, err := store.Category("currency")
//	for _, e := range entries {
//	    img, err := store.LoadImage(e.GroundLabel)
//	    ...
//	}
//
// # Thread Safety
//
// The store is immutable after Load apart from the image cache, which
// is mutex-guarded. All methods are safe for concurrent use.
package template
