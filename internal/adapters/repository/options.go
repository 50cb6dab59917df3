package repository

import "github.com/okian/talentmatch/pkg/logger"

// RedisOption applies a configuration option to the RedisSnapshotStore.
type RedisOption func(*RedisSnapshotStore)

// WithKeyPrefix sets the key namespace.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisSnapshotStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithMaxTxRetries bounds how often a replace is retried after a WATCH conflict.
func WithMaxTxRetries(n int) RedisOption {
	return func(s *RedisSnapshotStore) {
		if n > 0 {
			s.maxTxRetries = n
		}
	}
}

// WithRedisLogger sets a custom logger.
func WithRedisLogger(l logger.Logger) RedisOption {
	return func(s *RedisSnapshotStore) {
		if l != nil {
			s.logger = l
		}
	}
}
