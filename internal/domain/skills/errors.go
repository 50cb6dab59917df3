package skills

import "errors"

// Sentinel kinds for registry errors.
var (
	ErrInvalidRegistry = errors.New("invalid skill registry")
)
