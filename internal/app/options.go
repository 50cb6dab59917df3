package service

import (
	"time"

	"github.com/okian/talentmatch/internal/adapters/messaging"
	"github.com/okian/talentmatch/internal/adapters/repository"
	"github.com/okian/talentmatch/internal/domain/scoring"
	"github.com/okian/talentmatch/internal/domain/skills"
	"github.com/okian/talentmatch/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of delivery workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the delivery queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupe enables the notification ledger with the given bound.
func WithDedupe(enabled bool, size int) Option {
	return func(s *Service) {
		s.dedupe = enabled
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithNotifyThreshold sets the inclusive notification cut-off percentage.
func WithNotifyThreshold(pct float64) Option {
	return func(s *Service) {
		if pct >= 0 && pct <= 100 {
			s.threshold = pct
		}
	}
}

// WithBatchDeadline sets how long TriggerMatch waits before answering "processing".
func WithBatchDeadline(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.batchDeadline = d
		}
	}
}

// WithShutdownTimeout bounds how long Stop waits for running pipelines.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// WithMatchConcurrency bounds per-batch scoring fan-out.
func WithMatchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.matchConcurrency = n
		}
	}
}

// WithScorer sets the candidate scorer.
func WithScorer(sc scoring.Scorer) Option {
	return func(s *Service) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// WithRegistry sets the skill registry.
func WithRegistry(r *skills.Registry) Option {
	return func(s *Service) {
		if r != nil {
			s.registry = r
		}
	}
}

// WithCombiner sets the score combiner and band table.
func WithCombiner(c *scoring.Combiner) Option {
	return func(s *Service) {
		if c != nil {
			s.combiner = c
		}
	}
}

// WithMemoryStore uses one memory store for postings, candidates and
// notifications, and for snapshots unless WithSnapshotStore is given.
func WithMemoryStore(m *repository.MemoryStore) Option {
	return func(s *Service) {
		if m != nil {
			s.memory = m
		}
	}
}

// WithSnapshotStore sets the snapshot backend.
func WithSnapshotStore(st repository.SnapshotStore) Option {
	return func(s *Service) {
		if st != nil {
			s.snapshots = st
		}
	}
}

// WithMessenger sets the delivery channel.
func WithMessenger(m messaging.Messenger) Option {
	return func(s *Service) {
		if m != nil {
			s.messenger = m
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
