package config

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variable names.
const (
	EnvPrefix     = "TALENTMATCH_"
	EnvConfigFile = EnvPrefix + "CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if TALENTMATCH_CONFIG is set
//  3. env (prefix TALENTMATCH_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// TALENTMATCH_SEMANTIC_WEIGHT -> semantic_weight (flat keys)
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	// A configured band table replaces the default one instead of merging by index.
	if k.Exists("bands") {
		cfg.Bands = nil
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values the pipeline depends on.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if c.Addr == "" {
		return invalid("addr must not be empty")
	}
	if c.ScoringServiceURL != "" {
		u, err := url.Parse(c.ScoringServiceURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return invalid("scoring_service_url %q is not an absolute URL", c.ScoringServiceURL)
		}
	}
	switch c.ScoringMode {
	case ScoringModeCombined, ScoringModeGranular:
	default:
		return invalid("scoring_mode must be %q or %q", ScoringModeCombined, ScoringModeGranular)
	}
	if c.ScoringTimeoutMS <= 0 {
		return invalid("scoring_timeout_ms must be positive")
	}
	if c.SemanticWeight < 0 || c.TFIDFWeight < 0 || math.Abs(c.SemanticWeight+c.TFIDFWeight-1) > 1e-6 {
		return invalid("semantic_weight and tfidf_weight must be non-negative and sum to 1")
	}
	if c.NotifyThreshold < 0 || c.NotifyThreshold > 100 {
		return invalid("notify_threshold must be within [0,100]")
	}
	if c.BatchDeadlineMS <= 0 {
		return invalid("batch_deadline_ms must be positive")
	}
	switch c.SnapshotBackend {
	case SnapshotBackendMemory:
	case SnapshotBackendRedis:
		if c.RedisURL == "" {
			return invalid("redis_url is required for the redis snapshot backend")
		}
	default:
		return invalid("snapshot_backend must be %q or %q", SnapshotBackendMemory, SnapshotBackendRedis)
	}
	return nil
}
