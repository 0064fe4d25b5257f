package object

import "errors"

// Common object errors.
var (
	// ErrMissingField is returned by Get and the typed getters when the
	// requested key is not present.
	ErrMissingField = errors.New("missing field")

	// ErrFieldType is returned by the typed getters when the field holds a
	// value of a different kind.
	ErrFieldType = errors.New("field has wrong type")
)
