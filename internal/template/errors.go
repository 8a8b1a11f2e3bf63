package template

import "errors"

var (
	// ErrTemplateNotFound is returned when no category contains the
	// requested template.
	ErrTemplateNotFound = errors.New("template: template not found")

	// ErrCategoryNotFound is returned when the requested category does
	// not exist.
	ErrCategoryNotFound = errors.New("template: category not found")

	// ErrInvalidMetadata is returned when metadata.json cannot be parsed
	// or fails validation. The error text lists every problem found.
	ErrInvalidMetadata = errors.New("template: invalid metadata")
)
