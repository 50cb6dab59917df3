package scoring

import "errors"

// Sentinel kinds for scoring configuration errors.
var (
	ErrInvalidWeights = errors.New("invalid scoring weights")
	ErrInvalidBands   = errors.New("invalid interpretation bands")
)
