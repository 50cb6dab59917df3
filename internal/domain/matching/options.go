package matching

import (
	"time"

	"github.com/okian/talentmatch/internal/domain/scoring"
	"github.com/okian/talentmatch/internal/domain/skills"
	"github.com/okian/talentmatch/pkg/logger"
)

// Option applies a configuration option to the Matcher.
type Option func(*Matcher)

// WithConcurrency bounds how many candidates are scored at once.
func WithConcurrency(n int) Option {
	return func(m *Matcher) {
		if n > 0 {
			m.concurrency = n
		}
	}
}

// WithRegistry sets the registry used to normalize skills.
func WithRegistry(r *skills.Registry) Option {
	return func(m *Matcher) {
		if r != nil {
			m.registry = r
		}
	}
}

// WithCombiner sets the combiner whose band table labels results.
func WithCombiner(c *scoring.Combiner) Option {
	return func(m *Matcher) {
		if c != nil {
			m.combiner = c
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Matcher) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock overrides the time source for ComputedAt.
func WithClock(now func() time.Time) Option {
	return func(m *Matcher) {
		if now != nil {
			m.now = now
		}
	}
}
