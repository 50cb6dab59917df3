// Package service wires the matching pipeline together and exposes the
// operations the HTTP API depends on.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/okian/talentmatch/internal/adapters/messaging"
	deliveryqueue "github.com/okian/talentmatch/internal/adapters/mq/queue"
	workerpool "github.com/okian/talentmatch/internal/adapters/mq/worker"
	"github.com/okian/talentmatch/internal/adapters/repository"
	"github.com/okian/talentmatch/internal/adapters/scoringapi"
	"github.com/okian/talentmatch/internal/domain/dedupe"
	"github.com/okian/talentmatch/internal/domain/matching"
	"github.com/okian/talentmatch/internal/domain/model"
	"github.com/okian/talentmatch/internal/domain/notify"
	"github.com/okian/talentmatch/internal/domain/scoring"
	"github.com/okian/talentmatch/internal/domain/skills"
	"github.com/okian/talentmatch/pkg/logger"
	"github.com/okian/talentmatch/pkg/metrics"
)

// Default service configuration.
const (
	defaultQueueSize        = 10000
	defaultDedupeSize       = 500000
	defaultBatchDeadline    = 30 * time.Second
	defaultShutdownTimeout  = 30 * time.Second
	defaultMatchConcurrency = 32
)

// Service implements the API dependencies for the matching system.
type Service struct {
	mu sync.RWMutex

	// Collaborators
	memory    *repository.MemoryStore
	snapshots repository.SnapshotStore
	scorer    scoring.Scorer
	registry  *skills.Registry
	combiner  *scoring.Combiner
	messenger messaging.Messenger

	// Built on Start
	matcher  *matching.Matcher
	notifier *notify.Notifier
	ledger   dedupe.Ledger
	queue    *deliveryqueue.InMemoryQueue
	pool     *workerpool.Pool
	tasks    *supervisor

	// Configuration
	workerCount      int
	queueSize        int
	dedupe           bool
	dedupeSize       int
	threshold        float64
	batchDeadline    time.Duration
	shutdownTimeout  time.Duration
	matchConcurrency int

	started bool
	now     func() time.Time
	logger  logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:      runtime.NumCPU() * 2,
		queueSize:        defaultQueueSize,
		dedupeSize:       defaultDedupeSize,
		threshold:        notify.DefaultThreshold,
		batchDeadline:    defaultBatchDeadline,
		shutdownTimeout:  defaultShutdownTimeout,
		matchConcurrency: defaultMatchConcurrency,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the pipeline components and starts the delivery workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.registry == nil {
		s.registry = skills.Default()
	}
	if s.combiner == nil {
		s.combiner = scoring.MustNewCombiner()
	}
	if s.memory == nil {
		s.memory = repository.NewMemoryStore()
	}
	if s.snapshots == nil {
		s.snapshots = s.memory
	}
	if s.scorer == nil {
		s.scorer = scoringapi.New(
			scoringapi.WithRegistry(s.registry),
			scoringapi.WithCombiner(s.combiner),
			scoringapi.WithLogger(s.logger.Named("scoring")),
		)
	}
	if s.messenger == nil {
		s.messenger = messaging.NewLogMessenger(s.logger.Named("messenger"))
	}

	s.matcher = matching.New(s.scorer,
		matching.WithConcurrency(s.matchConcurrency),
		matching.WithRegistry(s.registry),
		matching.WithCombiner(s.combiner),
		matching.WithLogger(s.logger.Named("matcher")),
	)

	s.queue = deliveryqueue.NewInMemoryQueue(deliveryqueue.WithCapacity(s.queueSize))
	notifyOpts := []notify.Option{
		notify.WithThreshold(s.threshold),
		notify.WithRegistry(s.registry),
		notify.WithCombiner(s.combiner),
		notify.WithLogger(s.logger.Named("notifier")),
	}
	if s.dedupe {
		s.ledger = dedupe.NewInMemoryLedger(dedupe.WithMaxSize(s.dedupeSize))
		notifyOpts = append(notifyOpts, notify.WithLedger(s.ledger))
	}
	s.notifier = notify.New(s.memory, s.queue, notifyOpts...)

	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.messenger,
		workerpool.WithLogger(s.logger.Named("delivery")))
	// workers outlive the start context so Stop can drain the queue
	s.pool.Start(context.WithoutCancel(ctx))

	s.tasks = newSupervisor(s.logger.Named("supervisor"))
	s.started = true

	s.logger.Info(ctx, "matching service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Float64("notifyThreshold", s.threshold),
		logger.Bool("notifyDedupe", s.dedupe),
		logger.Duration("batchDeadline", s.batchDeadline),
	)
	return nil
}

// Stop waits for running pipelines, then drains the delivery queue. New
// work is refused as soon as Stop begins; reads stay available while it waits.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	tasks, pool := s.tasks, s.pool
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping matching service...", logger.Int("runningTasks", tasks.Running()))
	if err := tasks.Wait(ctx); err != nil {
		s.logger.Warn(ctx, "background pipelines did not finish", logger.Error(err))
	}
	if err := pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "delivery workers did not drain", logger.Error(err))
	}

	s.logger.Info(ctx, "matching service stopped")
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// UpsertCandidate stores a candidate profile.
func (s *Service) UpsertCandidate(ctx context.Context, c model.Candidate) error {
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("%w: candidate id is required", ErrInvalidInput)
	}
	c.Email = strings.TrimSpace(c.Email)
	return s.memory.UpsertCandidate(ctx, c)
}

// UpsertPosting stores a posting and runs matching for it.
func (s *Service) UpsertPosting(ctx context.Context, p model.Posting) (Outcome, error) {
	if err := s.ready(); err != nil {
		return Outcome{}, err
	}
	if strings.TrimSpace(p.ID) == "" {
		return Outcome{}, fmt.Errorf("%w: posting id is required", ErrInvalidInput)
	}
	for _, rs := range p.Skills {
		if rs.Weight < 0 {
			return Outcome{}, fmt.Errorf("%w: skill %q has a negative weight", ErrInvalidInput, rs.Name)
		}
	}
	p.UpdatedAt = s.now()
	if err := s.memory.UpsertPosting(ctx, p); err != nil {
		return Outcome{}, err
	}
	return s.TriggerMatch(ctx, p.ID)
}

// Matches returns the latest snapshot of a posting, keeping only entries at
// or above minPct.
func (s *Service) Matches(ctx context.Context, postingID string, minPct float64) (model.Snapshot, error) {
	if err := s.ready(); err != nil {
		return model.Snapshot{}, err
	}
	if _, err := s.memory.Posting(ctx, postingID); err != nil {
		return model.Snapshot{}, fmt.Errorf("posting %s: %w", postingID, err)
	}
	snap, err := s.snapshots.Snapshot(ctx, postingID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Snapshot{PostingID: postingID, Entries: []model.MatchResult{}}, nil
	}
	if err != nil {
		return model.Snapshot{}, err
	}
	if minPct > 0 {
		kept := make([]model.MatchResult, 0, len(snap.Entries))
		for _, e := range snap.Entries {
			if e.MatchPercentage >= minPct {
				kept = append(kept, e)
			}
		}
		snap.Entries = kept
	}
	return snap, nil
}

// Notifications lists a candidate's notifications, newest first.
func (s *Service) Notifications(ctx context.Context, candidateID string) ([]model.NotificationRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if _, err := s.memory.Candidate(ctx, candidateID); err != nil {
		return nil, fmt.Errorf("candidate %s: %w", candidateID, err)
	}
	return s.memory.NotificationsFor(ctx, candidateID)
}

// MarkRead marks a notification as read.
func (s *Service) MarkRead(ctx context.Context, notificationID string) (model.NotificationRecord, error) {
	if err := s.ready(); err != nil {
		return model.NotificationRecord{}, err
	}
	n, err := s.memory.MarkRead(ctx, notificationID)
	if err != nil {
		return model.NotificationRecord{}, fmt.Errorf("notification %s: %w", notificationID, err)
	}
	return n, nil
}

// Running returns the number of match pipelines still in flight.
func (s *Service) Running() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tasks == nil {
		return 0
	}
	return s.tasks.Running()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":         s.started,
		"workerCount":     s.workerCount,
		"queueSize":       s.queueSize,
		"notifyThreshold": s.threshold,
		"notifyDedupe":    s.dedupe,
	}
	if !s.started {
		return stats
	}

	ctx := context.Background()
	queueLen := s.queue.Len(ctx)
	stats["workerCount"] = s.pool.Size()
	stats["queueLength"] = queueLen
	stats["runningTasks"] = s.tasks.Running()
	stats["postings"] = s.memory.CountPostings(ctx)
	stats["candidates"] = s.memory.CountCandidates(ctx)
	if s.ledger != nil {
		stats["dedupeEntries"] = s.ledger.Size()
	}

	metrics.UpdateQueueSize(queueLen)
	metrics.UpdateWorkerCount(s.pool.Size())
	return stats
}
