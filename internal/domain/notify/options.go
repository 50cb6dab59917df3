package notify

import (
	"time"

	"github.com/okian/talentmatch/internal/domain/dedupe"
	"github.com/okian/talentmatch/internal/domain/scoring"
	"github.com/okian/talentmatch/internal/domain/skills"
	"github.com/okian/talentmatch/pkg/logger"
)

// Option applies a configuration option to the Notifier.
type Option func(*Notifier)

// WithThreshold sets the inclusive percentage a match must reach.
func WithThreshold(pct float64) Option {
	return func(n *Notifier) {
		if pct >= 0 && pct <= 100 {
			n.threshold = pct
		}
	}
}

// WithLedger suppresses repeat notifications for the same posting and candidate.
func WithLedger(l dedupe.Ledger) Option {
	return func(n *Notifier) { n.ledger = l }
}

// WithRegistry sets the registry used to group skills by category.
func WithRegistry(r *skills.Registry) Option {
	return func(n *Notifier) {
		if r != nil {
			n.registry = r
		}
	}
}

// WithCombiner sets the combiner whose band table labels messages.
func WithCombiner(c *scoring.Combiner) Option {
	return func(n *Notifier) {
		if c != nil {
			n.combiner = c
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(n *Notifier) {
		if l != nil {
			n.logger = l
		}
	}
}

// WithClock overrides the time source for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(n *Notifier) {
		if now != nil {
			n.now = now
		}
	}
}

// WithIDGenerator overrides record id generation.
func WithIDGenerator(gen func() string) Option {
	return func(n *Notifier) {
		if gen != nil {
			n.newID = gen
		}
	}
}
