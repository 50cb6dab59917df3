package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/okian/talentmatch/internal/domain/model"
	"github.com/okian/talentmatch/pkg/logger"
)

const (
	defaultKeyPrefix    = "talentmatch:"
	defaultMaxTxRetries = 3
)

// RedisSnapshotStore keeps snapshots as JSON values in Redis so that several
// instances share one view of the latest result set per posting.
type RedisSnapshotStore struct {
	client       *redis.Client
	prefix       string
	maxTxRetries int
	logger       logger.Logger
}

var _ SnapshotStore = (*RedisSnapshotStore)(nil)

// NewRedisSnapshotStore creates a store on an existing client. The client
// lifecycle is managed by the caller.
func NewRedisSnapshotStore(client *redis.Client, opts ...RedisOption) *RedisSnapshotStore {
	s := &RedisSnapshotStore{
		client:       client,
		prefix:       defaultKeyPrefix,
		maxTxRetries: defaultMaxTxRetries,
		logger:       logger.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *RedisSnapshotStore) snapshotKey(postingID string) string {
	return s.prefix + "snapshot:" + postingID
}

func (s *RedisSnapshotStore) generationKey(postingID string) string {
	return s.prefix + "generation:" + postingID
}

// NextGeneration increments the posting's generation counter.
func (s *RedisSnapshotStore) NextGeneration(ctx context.Context, postingID string) (uint64, error) {
	gen, err := s.client.Incr(ctx, s.generationKey(postingID)).Uint64()
	if err != nil {
		return 0, fmt.Errorf("reserve generation for %s: %w", postingID, err)
	}
	return gen, nil
}

// ReplaceSnapshot overwrites the stored snapshot under WATCH so that a
// concurrent writer with a newer generation always wins.
func (s *RedisSnapshotStore) ReplaceSnapshot(ctx context.Context, snap model.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	key := s.snapshotKey(snap.PostingID)

	txf := func(tx *redis.Tx) error {
		current, err := s.read(ctx, tx, key)
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			return err
		case snap.Generation < current.Generation:
			return ErrStaleSnapshot
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < s.maxTxRetries; attempt++ {
		err = s.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		s.logger.Debug(ctx, "snapshot replace conflicted; retrying",
			logger.String("posting", snap.PostingID),
			logger.Int("attempt", attempt+1),
		)
	}
	return fmt.Errorf("replace snapshot %s: %w", snap.PostingID, err)
}

// Snapshot reads the stored snapshot.
func (s *RedisSnapshotStore) Snapshot(ctx context.Context, postingID string) (model.Snapshot, error) {
	return s.read(ctx, s.client, s.snapshotKey(postingID))
}

func (s *RedisSnapshotStore) read(ctx context.Context, c redis.Cmdable, key string) (model.Snapshot, error) {
	raw, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("read %s: %w", key, err)
	}
	var snap model.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return model.Snapshot{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return snap, nil
}
