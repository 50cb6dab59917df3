package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/talentmatch/internal/adapters/repository"
	"github.com/okian/talentmatch/internal/domain/model"
	"github.com/okian/talentmatch/pkg/logger"
	"github.com/okian/talentmatch/pkg/metrics"
)

// Outcome statuses.
const (
	StatusCompleted  = "completed"
	StatusProcessing = "processing"
)

// Outcome is what a trigger reports. Counts are only set when the pipeline
// finished within the batch deadline.
type Outcome struct {
	PostingID  string        `json:"postingId"`
	Status     string        `json:"status"`
	Generation uint64        `json:"generation,omitempty"`
	Total      int           `json:"total"`
	Matched    int           `json:"matched"`
	Notified   int           `json:"notified"`
	Persisted  bool          `json:"persisted"`
	Duration   time.Duration `json:"-"`
}

// TriggerMatch recomputes matches for a posting. The pipeline runs as a
// supervised background task; if it outlives the batch deadline the call
// returns a processing outcome and the task keeps going on its own.
func (s *Service) TriggerMatch(ctx context.Context, postingID string) (Outcome, error) {
	if err := s.ready(); err != nil {
		return Outcome{}, err
	}
	posting, err := s.memory.Posting(ctx, postingID)
	if err != nil {
		return Outcome{}, fmt.Errorf("posting %s: %w", postingID, err)
	}
	candidates, err := s.memory.Candidates(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("load candidates: %w", err)
	}

	result := make(chan Outcome, 1)
	done := s.tasks.Go(context.WithoutCancel(ctx), "match:"+postingID, func(bg context.Context) {
		result <- s.runPipeline(bg, posting, candidates)
	})

	timer := time.NewTimer(s.batchDeadline)
	defer timer.Stop()

	select {
	case out := <-result:
		return out, nil
	case <-done:
		select {
		case out := <-result:
			return out, nil
		default:
		}
		// the task ended without an outcome: it panicked
		return Outcome{}, fmt.Errorf("match pipeline for %s aborted", postingID)
	case <-timer.C:
	case <-ctx.Done():
	}

	metrics.RecordDeadlineExceeded()
	s.logger.Info(ctx, "match pipeline still running; answering processing",
		logger.String("posting", postingID),
		logger.Int("candidates", len(candidates)),
		logger.Duration("deadline", s.batchDeadline),
	)
	return Outcome{PostingID: postingID, Status: StatusProcessing, Total: len(candidates)}, nil
}

// runPipeline scores the batch, replaces the snapshot, then notifies.
func (s *Service) runPipeline(ctx context.Context, posting model.Posting, candidates []model.Candidate) Outcome {
	start := time.Now()
	out := Outcome{PostingID: posting.ID, Status: StatusCompleted, Total: len(candidates)}

	gen, genErr := s.snapshots.NextGeneration(ctx, posting.ID)
	if genErr != nil {
		s.logger.Error(ctx, "failed to reserve snapshot generation",
			logger.String("posting", posting.ID), logger.Error(genErr))
	}
	out.Generation = gen

	results := s.matcher.MatchAll(ctx, candidates, posting)
	for _, r := range results {
		if r.Method != model.MethodError && r.Method != model.MethodInvalidCandidate {
			out.Matched++
		}
	}

	stale := false
	switch err := s.persist(ctx, posting.ID, gen, genErr, results); {
	case err == nil:
		out.Persisted = true
		metrics.RecordSnapshotWrite("ok")
	case errors.Is(err, repository.ErrStaleSnapshot):
		stale = true
		metrics.RecordSnapshotWrite("stale")
		s.logger.Warn(ctx, "newer match snapshot already stored; discarding results",
			logger.String("posting", posting.ID), logger.Uint64("generation", gen))
	default:
		metrics.RecordSnapshotWrite("error")
		metrics.RecordErrorByComponent("pipeline", "snapshot")
		s.logger.Error(ctx, "failed to persist match snapshot",
			logger.String("posting", posting.ID), logger.Error(err))
	}

	// A newer batch owns notifications for this posting.
	if !stale {
		out.Notified = len(s.notifier.Notify(ctx, posting, results, candidates))
	}

	out.Duration = time.Since(start)
	metrics.RecordBatch(out.Status, len(candidates), float64(out.Duration.Milliseconds()))
	s.logger.Info(ctx, "match batch finished",
		logger.String("posting", posting.ID),
		logger.Uint64("generation", gen),
		logger.Int("candidates", out.Total),
		logger.Int("matched", out.Matched),
		logger.Int("notified", out.Notified),
		logger.Bool("persisted", out.Persisted),
		logger.Duration("duration", out.Duration),
	)
	return out
}

// persist replaces the posting's snapshot. Without a reserved generation
// there is nothing to guard the write with, so it is not attempted.
func (s *Service) persist(ctx context.Context, postingID string, gen uint64, genErr error, results []model.MatchResult) error {
	if genErr != nil {
		return fmt.Errorf("reserve generation: %w", genErr)
	}
	return s.snapshots.ReplaceSnapshot(ctx, model.Snapshot{
		PostingID:  postingID,
		Generation: gen,
		Entries:    results,
		ComputedAt: s.now(),
	})
}
