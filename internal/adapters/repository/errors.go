package repository

import "errors"

// Sentinel errors for store operations.
var (
	ErrNotFound      = errors.New("not found")
	ErrStaleSnapshot = errors.New("stale snapshot generation")
	ErrInvalidID     = errors.New("invalid id")
)
