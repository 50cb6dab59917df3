// Package scoringapi is the client for the remote skill-scoring service.
// Every failure degrades to the deterministic local scorer.
package scoringapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"golang.org/x/sync/errgroup"

	"github.com/okian/talentmatch/internal/domain/model"
	"github.com/okian/talentmatch/internal/domain/scoring"
	"github.com/okian/talentmatch/internal/domain/skills"
	"github.com/okian/talentmatch/pkg/logger"
	"github.com/okian/talentmatch/pkg/metrics"
)

// Default client configuration.
const (
	ModeCombined = "combined"
	ModeGranular = "granular"

	// The remote model can take minutes on cold start.
	defaultTimeout  = 2 * time.Minute
	defaultAttempts = 2
	retryDelay      = 200 * time.Millisecond
	retryJitter     = 100 * time.Millisecond
	maxBodyBytes    = 1 << 20
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL sets the scoring service base URL. Empty disables remote scoring.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithMode selects ModeCombined or ModeGranular.
func WithMode(mode string) Option {
	return func(c *Client) {
		if mode == ModeCombined || mode == ModeGranular {
			c.mode = mode
		}
	}
}

// WithTimeout bounds one Score call, retries included.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRetryAttempts sets total attempts for transient failures.
func WithRetryAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.attempts = uint(n)
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithCombiner sets the combiner used to merge remote signals.
func WithCombiner(cb *scoring.Combiner) Option {
	return func(c *Client) {
		if cb != nil {
			c.combiner = cb
		}
	}
}

// WithRegistry sets the registry used to normalize remote skill names.
func WithRegistry(r *skills.Registry) Option {
	return func(c *Client) {
		if r != nil {
			c.registry = r
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// Client implements scoring.Scorer against the remote service.
type Client struct {
	baseURL  string
	mode     string
	timeout  time.Duration
	attempts uint
	http     *http.Client
	combiner *scoring.Combiner
	registry *skills.Registry
	logger   logger.Logger
}

var _ scoring.Scorer = (*Client)(nil)

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		mode:     ModeCombined,
		timeout:  defaultTimeout,
		attempts: defaultAttempts,
		http:     &http.Client{},
		combiner: scoring.MustNewCombiner(),
		registry: skills.Default(),
		logger:   logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Score scores candidate against posting. It never fails.
func (c *Client) Score(ctx context.Context, candidate, posting skills.Set) scoring.Result {
	if r, ok := scoring.Trivial(candidate, posting); ok {
		return r
	}
	if c.baseURL == "" {
		metrics.RecordScoringFallback(scoring.ReasonUnconfigured)
		r := scoring.Fallback(candidate, posting)
		r.Reason = scoring.ReasonUnconfigured
		return r
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var (
		sig remoteSignals
		err error
	)
	if c.mode == ModeGranular {
		sig, err = c.scoreGranular(ctx, candidate, posting)
	} else {
		sig, err = c.scoreCombined(ctx, candidate, posting)
	}
	metrics.RecordScoringLatency(float64(time.Since(start).Milliseconds()))

	if err != nil {
		reason := classify(ctx, err)
		metrics.RecordScoringFallback(reason)
		c.logger.Warn(ctx, "remote scoring unavailable; using fallback",
			logger.String("reason", reason),
			logger.String("mode", c.mode),
			logger.Error(err),
		)
		r := scoring.Fallback(candidate, posting)
		r.Reason = reason
		return r
	}

	matched := posting.Intersect(sig.matched)
	hybrid := c.combiner.Combine(sig.semantic, sig.tfidf)
	return scoring.Result{
		Semantic:   sig.semantic,
		TFIDF:      sig.tfidf,
		Hybrid:     hybrid,
		Matched:    matched,
		Missing:    posting.Difference(matched),
		Percentage: scoring.ToPercentage(hybrid),
		Method:     model.MethodSemantic,
	}
}

type remoteSignals struct {
	semantic float64
	tfidf    float64
	matched  skills.Set
}

func (c *Client) scoreCombined(ctx context.Context, candidate, posting skills.Set) (remoteSignals, error) {
	req := matchSkillsRequest{ResumeSkills: candidate.Sorted(), JDSkills: posting.Sorted()}
	var resp matchSkillsResponse
	if err := c.post(ctx, pathMatchSkills, req, &resp); err != nil {
		return remoteSignals{}, err
	}
	if resp.Status != statusSuccess || resp.MatchResult == nil {
		return remoteSignals{}, fmt.Errorf("%w: status %q", ErrMalformed, resp.Status)
	}
	mr := resp.MatchResult
	if err := checkUnit("semantic_score", mr.SemanticScore); err != nil {
		return remoteSignals{}, err
	}
	if err := checkUnit("tfidf_score", mr.TFIDFScore); err != nil {
		return remoteSignals{}, err
	}
	return remoteSignals{
		semantic: *mr.SemanticScore,
		tfidf:    *mr.TFIDFScore,
		matched:  c.registry.NormalizeSet(mr.MatchedSkills),
	}, nil
}

func (c *Client) scoreGranular(ctx context.Context, candidate, posting skills.Set) (remoteSignals, error) {
	req := granularRequest{Skills: candidate.Sorted(), Description: strings.Join(posting.Sorted(), ", ")}

	var (
		sem semanticResponse
		tf  tfidfResponse
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := c.post(gctx, pathSemanticScore, req, &sem); err != nil {
			return err
		}
		return checkUnit("semantic_score", sem.SemanticScore)
	})
	g.Go(func() error {
		if err := c.post(gctx, pathTFIDFScore, req, &tf); err != nil {
			return err
		}
		return checkUnit("tfidf_score", tf.TFIDFScore)
	})
	if err := g.Wait(); err != nil {
		return remoteSignals{}, err
	}
	// The granular endpoints do not name skills; exact overlap stands in.
	return remoteSignals{
		semantic: *sem.SemanticScore,
		tfidf:    *tf.TFIDFScore,
		matched:  posting.Intersect(candidate),
	}, nil
}

// post sends body as JSON and decodes a 2xx answer into out, retrying
// transient failures within ctx.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	url := c.baseURL + path

	raw, err := retry.DoWithData(
		func() ([]byte, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
			if err != nil {
				return nil, retry.Unrecoverable(err)
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Accept", "application/json")

			resp, err := c.http.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close() //nolint:errcheck // read-only body

			if resp.StatusCode < 200 || resp.StatusCode > 299 {
				_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
				return nil, &StatusError{StatusCode: resp.StatusCode, URL: url}
			}
			return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(retryDelay),
		retry.MaxJitter(retryJitter),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			metrics.RecordScoringRetry()
			c.logger.Debug(ctx, "retrying scoring request",
				logger.Int("attempt", int(n)+1),
				logger.String("url", url),
				logger.Error(err),
			)
		}),
	)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return nil
}

func checkUnit(field string, v *float64) error {
	if v == nil {
		return fmt.Errorf("%w: missing %s", ErrMalformed, field)
	}
	if math.IsNaN(*v) || *v < 0 || *v > 1 {
		return fmt.Errorf("%w: %s=%v outside [0,1]", ErrMalformed, field, *v)
	}
	return nil
}

// classify maps a remote failure to a fallback reason.
func classify(ctx context.Context, err error) string {
	var se *StatusError
	switch {
	case ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded):
		return scoring.ReasonTimeout
	case errors.As(err, &se):
		return scoring.ReasonStatus
	case errors.Is(err, ErrMalformed):
		return scoring.ReasonMalformed
	default:
		return scoring.ReasonNetwork
	}
}
