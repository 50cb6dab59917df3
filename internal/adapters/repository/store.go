// Package repository defines the posting, candidate, notification and
// snapshot stores and their implementations.
package repository

import (
	"context"

	"github.com/okian/talentmatch/internal/domain/model"
)

// PostingStore holds job postings.
type PostingStore interface {
	UpsertPosting(ctx context.Context, p model.Posting) error
	// Posting returns ErrNotFound if the posting is unknown.
	Posting(ctx context.Context, id string) (model.Posting, error)
	CountPostings(ctx context.Context) int
}

// CandidateStore holds candidate profiles.
type CandidateStore interface {
	UpsertCandidate(ctx context.Context, c model.Candidate) error
	Candidate(ctx context.Context, id string) (model.Candidate, error)
	// Candidates returns the whole population ordered by id.
	Candidates(ctx context.Context) ([]model.Candidate, error)
	CountCandidates(ctx context.Context) int
}

// SnapshotStore holds the latest match result set per posting.
type SnapshotStore interface {
	// NextGeneration reserves a generation for a batch about to run.
	NextGeneration(ctx context.Context, postingID string) (uint64, error)
	// ReplaceSnapshot overwrites the stored set. It returns ErrStaleSnapshot
	// if a newer generation is already stored.
	ReplaceSnapshot(ctx context.Context, snap model.Snapshot) error
	// Snapshot returns ErrNotFound if nothing was stored yet.
	Snapshot(ctx context.Context, postingID string) (model.Snapshot, error)
}

// NotificationStore holds notification records.
type NotificationStore interface {
	SaveNotification(ctx context.Context, n model.NotificationRecord) error
	// NotificationsFor lists a candidate's records, newest first.
	NotificationsFor(ctx context.Context, candidateID string) ([]model.NotificationRecord, error)
	// MarkRead returns ErrNotFound if the record is unknown.
	MarkRead(ctx context.Context, id string) (model.NotificationRecord, error)
}
