package catalog

import "errors"

// Catalog errors.
var (
	// ErrCatalogRead is returned when a language config or template cannot
	// be read or parsed.
	ErrCatalogRead = errors.New("catalog read failed")

	// ErrUnknownLanguage is returned when no built-in catalog exists for a
	// language.
	ErrUnknownLanguage = errors.New("unknown language")
)
