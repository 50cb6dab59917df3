// Package matching scores a candidate population against one posting.
package matching

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/talentmatch/internal/domain/model"
	"github.com/okian/talentmatch/internal/domain/scoring"
	"github.com/okian/talentmatch/internal/domain/skills"
	"github.com/okian/talentmatch/pkg/logger"
	"github.com/okian/talentmatch/pkg/metrics"
)

const defaultConcurrency = 32

// Failure reasons attached to error results.
const (
	reasonBlankID       = "blank candidate id"
	reasonInvalidEmail  = "invalid contact address"
	reasonBlankSkills   = "skills contain only blank entries"
	reasonScoringPanics = "scoring panicked"
)

// Matcher runs one scorer over many candidates with bounded fan-out.
type Matcher struct {
	scorer      scoring.Scorer
	registry    *skills.Registry
	combiner    *scoring.Combiner
	concurrency int
	logger      logger.Logger
	now         func() time.Time
}

// New creates a Matcher around scorer.
func New(scorer scoring.Scorer, opts ...Option) *Matcher {
	m := &Matcher{
		scorer:      scorer,
		registry:    skills.Default(),
		combiner:    scoring.MustNewCombiner(),
		concurrency: defaultConcurrency,
		logger:      logger.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// PostingSkills returns the normalized skill set of a posting.
func (m *Matcher) PostingSkills(p model.Posting) skills.Set {
	return m.registry.NormalizeSet(p.SkillNames())
}

// MatchAll returns exactly one result per candidate, in input order.
// A failing candidate yields an error-tagged result; it never aborts the batch.
func (m *Matcher) MatchAll(ctx context.Context, candidates []model.Candidate, posting model.Posting) []model.MatchResult {
	required := m.PostingSkills(posting)
	results := make([]model.MatchResult, len(candidates))

	var g errgroup.Group
	g.SetLimit(m.concurrency)
	for i := range candidates {
		g.Go(func() error {
			results[i] = m.matchOne(ctx, candidates[i], posting.ID, required)
			metrics.RecordResult(string(results[i].Method))
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (m *Matcher) matchOne(ctx context.Context, c model.Candidate, postingID string, required skills.Set) (res model.MatchResult) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 2048)
			buf = buf[:runtime.Stack(buf, false)]
			m.logger.Error(ctx, "candidate scoring panicked",
				logger.String("posting", postingID),
				logger.String("candidate", c.ID),
				logger.Any("panic", r),
				logger.String("stack", string(buf)),
			)
			res = m.failed(c.ID, model.MethodError, required, fmt.Sprintf("%s: %v", reasonScoringPanics, r))
		}
	}()

	if strings.TrimSpace(c.ID) == "" {
		m.logger.Warn(ctx, "candidate skipped", logger.String("posting", postingID), logger.String("reason", reasonBlankID))
		return m.failed(c.ID, model.MethodInvalidCandidate, required, reasonBlankID)
	}
	if !c.HasValidContact() {
		m.logger.Warn(ctx, "candidate skipped",
			logger.String("posting", postingID),
			logger.String("candidate", c.ID),
			logger.String("reason", reasonInvalidEmail),
		)
		return m.failed(c.ID, model.MethodError, required, reasonInvalidEmail)
	}

	have := m.registry.NormalizeSet(c.Skills)
	if len(c.Skills) > 0 && len(have) == 0 {
		m.logger.Warn(ctx, "candidate skipped",
			logger.String("posting", postingID),
			logger.String("candidate", c.ID),
			logger.String("reason", reasonBlankSkills),
		)
		return m.failed(c.ID, model.MethodError, required, reasonBlankSkills)
	}

	r := m.scorer.Score(ctx, have, required)
	out := model.MatchResult{
		CandidateID:     c.ID,
		MatchPercentage: r.Percentage,
		MatchedSkills:   r.Matched.Sorted(),
		MissingSkills:   r.Missing.Sorted(),
		Method:          r.Method,
		Band:            m.combiner.Interpret(r.Percentage),
		Reason:          r.Reason,
		ComputedAt:      m.now(),
	}
	if r.Method == model.MethodSemantic || r.Method == model.MethodSimple {
		out.SemanticScore = ptr(r.Semantic)
		out.TFIDFScore = ptr(r.TFIDF)
		out.HybridScore = ptr(r.Hybrid)
	}
	return out
}

func (m *Matcher) failed(id string, method model.Method, required skills.Set, reason string) model.MatchResult {
	return model.MatchResult{
		CandidateID:   id,
		MatchedSkills: []string{},
		MissingSkills: required.Sorted(),
		Method:        method,
		Band:          m.combiner.Interpret(0),
		Reason:        reason,
		ComputedAt:    m.now(),
	}
}

func ptr(v float64) *float64 { return &v }
