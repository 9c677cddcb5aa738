package fragment

import "errors"

// Fragment errors.
var (
	// ErrInvalidFragment is returned when a fragment file cannot be decoded
	// or does not declare a Name.
	ErrInvalidFragment = errors.New("invalid fragment")
)
