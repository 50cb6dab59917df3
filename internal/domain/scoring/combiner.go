package scoring

import (
	"fmt"
	"math"
)

// Default combiner configuration.
const (
	DefaultSemanticWeight = 0.7
	DefaultTFIDFWeight    = 0.3
	weightSumTolerance    = 1e-6
	percentScale          = 10000
)

// Weights of the two signals merged into the hybrid score.
type Weights struct {
	Semantic float64
	TFIDF    float64
}

// Band labels percentages at or above Min.
type Band struct {
	Min   float64
	Label string
}

// DefaultBands is the single interpretation table used everywhere.
func DefaultBands() []Band {
	return []Band{
		{Min: 90, Label: "Excellent"},
		{Min: 75, Label: "Good"},
		{Min: 60, Label: "Fair"},
		{Min: 40, Label: "Below Average"},
		{Min: 0, Label: "Poor"},
	}
}

// Option applies a configuration option to the Combiner.
type Option func(*Combiner)

// WithWeights sets the semantic and tf-idf weights.
func WithWeights(semantic, tfidf float64) Option {
	return func(c *Combiner) {
		c.weights = Weights{Semantic: semantic, TFIDF: tfidf}
	}
}

// WithBands replaces the interpretation table. Bands must be ordered by
// strictly descending Min.
func WithBands(bands []Band) Option {
	return func(c *Combiner) {
		if len(bands) > 0 {
			c.bands = append([]Band(nil), bands...)
		}
	}
}

// Combiner merges the semantic and tf-idf signals and labels the result.
type Combiner struct {
	weights Weights
	bands   []Band
}

// NewCombiner builds a Combiner and validates its configuration.
func NewCombiner(opts ...Option) (*Combiner, error) {
	c := &Combiner{
		weights: Weights{Semantic: DefaultSemanticWeight, TFIDF: DefaultTFIDFWeight},
		bands:   DefaultBands(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewCombiner is like NewCombiner but panics on invalid configuration.
func MustNewCombiner(opts ...Option) *Combiner {
	c, err := NewCombiner(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Combiner) validate() error {
	w := c.weights
	if w.Semantic < 0 || w.TFIDF < 0 {
		return fmt.Errorf("%w: weights must be non-negative (semantic=%v tfidf=%v)", ErrInvalidWeights, w.Semantic, w.TFIDF)
	}
	if math.Abs(w.Semantic+w.TFIDF-1) > weightSumTolerance {
		return fmt.Errorf("%w: weights must sum to 1 (got %v)", ErrInvalidWeights, w.Semantic+w.TFIDF)
	}
	for i, b := range c.bands {
		if b.Label == "" {
			return fmt.Errorf("%w: band %d has no label", ErrInvalidBands, i)
		}
		if b.Min < 0 || b.Min > 100 {
			return fmt.Errorf("%w: band %q min %v outside [0,100]", ErrInvalidBands, b.Label, b.Min)
		}
		if i > 0 && b.Min >= c.bands[i-1].Min {
			return fmt.Errorf("%w: band %q must have a lower min than %q", ErrInvalidBands, b.Label, c.bands[i-1].Label)
		}
	}
	return nil
}

// Weights returns the configured weights.
func (c *Combiner) Weights() Weights { return c.weights }

// Bands returns a copy of the interpretation table.
func (c *Combiner) Bands() []Band { return append([]Band(nil), c.bands...) }

// Combine returns the weighted hybrid score in [0,1], rounded to 4 places.
func (c *Combiner) Combine(semantic, tfidf float64) float64 {
	hybrid := clamp01(semantic)*c.weights.Semantic + clamp01(tfidf)*c.weights.TFIDF
	return round(clamp01(hybrid), 4)
}

// ToPercentage renders a [0,1] score as a percentage with two decimals.
func ToPercentage(score float64) float64 {
	return math.Round(score*percentScale) / 100
}

// FormatPercent renders a percentage for display: integers without decimals,
// everything else with two.
func FormatPercent(pct float64) string {
	if pct == math.Trunc(pct) {
		return fmt.Sprintf("%.0f", pct)
	}
	return fmt.Sprintf("%.2f", pct)
}

// Interpret returns the band label for a percentage. Percentages below
// every band get the lowest band's label.
func (c *Combiner) Interpret(percentage float64) string {
	for _, b := range c.bands {
		if percentage >= b.Min {
			return b.Label
		}
	}
	return c.bands[len(c.bands)-1].Label
}
