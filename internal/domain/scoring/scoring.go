// Package scoring defines the contract for scoring a candidate's skills
// against a posting and the deterministic pieces shared by every scorer.
package scoring

import (
	"context"
	"math"

	"github.com/okian/talentmatch/internal/domain/model"
	"github.com/okian/talentmatch/internal/domain/skills"
)

// Fallback reasons recorded when the local scorer stands in for the remote one.
const (
	ReasonUnconfigured = "unconfigured"
	ReasonNetwork      = "network"
	ReasonTimeout      = "timeout"
	ReasonStatus       = "bad_status"
	ReasonMalformed    = "malformed"
)

// Result is the outcome of scoring one candidate against one posting.
// Percentage is already rounded per Method: two decimals for ml-semantic,
// integer for simple, zero otherwise.
type Result struct {
	Semantic   float64
	TFIDF      float64
	Hybrid     float64
	Matched    skills.Set
	Missing    skills.Set
	Percentage float64
	Method     model.Method
	// Reason is set when the fallback scorer produced the result.
	Reason string
}

// Scorer scores normalized skill sets. Implementations never fail: when the
// primary signal is unavailable they degrade to Fallback.
type Scorer interface {
	Score(ctx context.Context, candidate, posting skills.Set) Result
}

// Trivial handles the inputs that need no scoring at all: an empty posting
// or an empty candidate. The second return is false when real scoring is needed.
func Trivial(candidate, posting skills.Set) (Result, bool) {
	switch {
	case len(posting) == 0:
		return Result{
			Matched: skills.Set{},
			Missing: skills.Set{},
			Method:  model.MethodNoSkills,
		}, true
	case len(candidate) == 0:
		return Result{
			Matched: skills.Set{},
			Missing: posting.Difference(skills.Set{}),
			Method:  model.MethodNoSkills,
		}, true
	}
	return Result{}, false
}

// Fallback is the deterministic intersection scorer. It never fails.
func Fallback(candidate, posting skills.Set) Result {
	if r, ok := Trivial(candidate, posting); ok {
		return r
	}
	matched := posting.Intersect(candidate)
	ratio := float64(len(matched)) / float64(len(posting))
	return Result{
		Semantic:   round(ratio, 4),
		TFIDF:      round(ratio, 4),
		Hybrid:     round(ratio, 4),
		Matched:    matched,
		Missing:    posting.Difference(matched),
		Percentage: math.Round(ratio * 100),
		Method:     model.MethodSimple,
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
