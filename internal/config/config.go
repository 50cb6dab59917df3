// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - One immutable *Config is loaded at startup and handed to constructors;
//     nothing reads the environment after Load returns.
//   - External errors are wrapped with ErrLoadConfig or ErrInvalidConfig.
package config

import (
	"runtime"
	"time"
)

// Band labels match percentages at or above Min.
type Band struct {
	Min   float64 `koanf:"min"`
	Label string  `koanf:"label"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ScoringServiceURL is the base URL of the remote scorer. Empty means
	// every score comes from the local fallback.
	ScoringServiceURL string `koanf:"scoring_service_url"`
	// ScoringMode is "combined" (/match-skills) or "granular" (two calls).
	ScoringMode string `koanf:"scoring_mode"`
	// ScoringTimeoutMS bounds one candidate's remote scoring, retries included.
	ScoringTimeoutMS int `koanf:"scoring_timeout_ms"`
	// ScoringRetryAttempts is the total attempts for transient failures.
	ScoringRetryAttempts int `koanf:"scoring_retry_attempts"`

	// SemanticWeight and TFIDFWeight must sum to 1.
	SemanticWeight float64 `koanf:"semantic_weight"`
	TFIDFWeight    float64 `koanf:"tfidf_weight"`
	// Bands is the single interpretation table, highest Min first.
	Bands []Band `koanf:"bands"`

	// NotifyThreshold is the inclusive percentage a candidate must reach.
	NotifyThreshold float64 `koanf:"notify_threshold"`
	// NotifyDedupe suppresses repeat notifications per posting and candidate.
	NotifyDedupe bool `koanf:"notify_dedupe"`
	// DedupeSize bounds the notification ledger.
	DedupeSize int `koanf:"dedupe_size"`

	// BatchDeadlineMS is how long a trigger waits before answering "processing".
	BatchDeadlineMS int `koanf:"batch_deadline_ms"`
	// MatchConcurrency bounds concurrent candidate scoring within a batch.
	MatchConcurrency int `koanf:"match_concurrency"`
	// ShutdownTimeoutMS bounds how long shutdown waits for running pipelines.
	ShutdownTimeoutMS int `koanf:"shutdown_timeout_ms"`

	// DeliveryQueueSize bounds pending notification deliveries.
	DeliveryQueueSize int `koanf:"delivery_queue_size"`
	// DeliveryWorkers sets the number of delivery workers.
	DeliveryWorkers int `koanf:"delivery_workers"`

	// SnapshotBackend is "memory" or "redis".
	SnapshotBackend string `koanf:"snapshot_backend"`
	RedisURL        string `koanf:"redis_url"`

	// SMTP settings. An empty SMTPHost logs notifications instead of mailing them.
	SMTPHost string `koanf:"smtp_host"`
	SMTPPort int    `koanf:"smtp_port"`
	SMTPUser string `koanf:"smtp_user"`
	SMTPPass string `koanf:"smtp_pass"`
	SMTPFrom string `koanf:"smtp_from"`

	// SkillAliases extends the builtin registry: canonical -> aliases.
	SkillAliases map[string][]string `koanf:"skill_aliases"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		ScoringMode:          ScoringModeCombined,
		ScoringTimeoutMS:     120_000,
		ScoringRetryAttempts: 2,
		SemanticWeight:       0.7,
		TFIDFWeight:          0.3,
		Bands: []Band{
			{Min: 90, Label: "Excellent"},
			{Min: 75, Label: "Good"},
			{Min: 60, Label: "Fair"},
			{Min: 40, Label: "Below Average"},
			{Min: 0, Label: "Poor"},
		},
		NotifyThreshold:   75,
		NotifyDedupe:      false,
		DedupeSize:        500_000,
		BatchDeadlineMS:   30_000,
		MatchConcurrency:  32,
		ShutdownTimeoutMS: 30_000,
		DeliveryQueueSize: 10_000,
		DeliveryWorkers:   runtime.NumCPU() * 2,
		SnapshotBackend:   SnapshotBackendMemory,
		RedisURL:          "redis://localhost:6379/0",
		SMTPPort:          587,
		SMTPFrom:          "no-reply@talentmatch.local",
	}
}

// Accepted enum values.
const (
	ScoringModeCombined   = "combined"
	ScoringModeGranular   = "granular"
	SnapshotBackendMemory = "memory"
	SnapshotBackendRedis  = "redis"
)

// ScoringTimeout returns ScoringTimeoutMS as a duration.
func (c *Config) ScoringTimeout() time.Duration {
	return time.Duration(c.ScoringTimeoutMS) * time.Millisecond
}

// BatchDeadline returns BatchDeadlineMS as a duration.
func (c *Config) BatchDeadline() time.Duration {
	return time.Duration(c.BatchDeadlineMS) * time.Millisecond
}

// ShutdownTimeout returns ShutdownTimeoutMS as a duration.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMS) * time.Millisecond
}
