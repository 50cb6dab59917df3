package scoringapi

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMalformed marks a response that could not be used.
var ErrMalformed = errors.New("malformed scoring response")

// StatusError is a non-2xx answer from the scoring service.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("scoring service %s returned %d", e.URL, e.StatusCode)
}

// retryable reports whether another attempt may succeed.
func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		switch se.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		default:
			return false
		}
	}
	if errors.Is(err, ErrMalformed) {
		return false
	}
	// network errors
	return true
}
