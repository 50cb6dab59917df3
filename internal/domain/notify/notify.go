// Package notify turns strong matches into notification records and hands
// them to the delivery queue.
package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/talentmatch/internal/domain/dedupe"
	"github.com/okian/talentmatch/internal/domain/model"
	"github.com/okian/talentmatch/internal/domain/scoring"
	"github.com/okian/talentmatch/internal/domain/skills"
	"github.com/okian/talentmatch/pkg/logger"
	"github.com/okian/talentmatch/pkg/metrics"
)

// DefaultThreshold is the inclusive notification cut-off.
const DefaultThreshold = 75

// Store persists notification records.
type Store interface {
	SaveNotification(ctx context.Context, n model.NotificationRecord) error
}

// DeliveryQueue accepts deliveries without blocking. It returns false when
// the delivery was dropped.
type DeliveryQueue interface {
	Enqueue(ctx context.Context, d model.Delivery) bool
}

// Notifier filters batch results and creates notification records.
type Notifier struct {
	store     Store
	queue     DeliveryQueue
	ledger    dedupe.Ledger
	threshold float64
	registry  *skills.Registry
	combiner  *scoring.Combiner
	logger    logger.Logger
	now       func() time.Time
	newID     func() string
}

// New creates a Notifier. queue may be nil, in which case records are only stored.
func New(store Store, queue DeliveryQueue, opts ...Option) *Notifier {
	n := &Notifier{
		store:     store,
		queue:     queue,
		threshold: DefaultThreshold,
		registry:  skills.Default(),
		combiner:  scoring.MustNewCombiner(),
		logger:    logger.NewNop(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Threshold returns the configured cut-off.
func (n *Notifier) Threshold() float64 { return n.threshold }

// Notify creates a record for every match at or above the threshold whose
// candidate has a valid contact address. Store and delivery failures are
// logged and skipped; they never fail the call.
func (n *Notifier) Notify(ctx context.Context, posting model.Posting, matches []model.MatchResult, candidates []model.Candidate) []model.NotificationRecord {
	byID := make(map[string]model.Candidate, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
	}
	weights := n.postingWeights(posting)

	var out []model.NotificationRecord
	for _, m := range matches {
		if !n.eligible(m) {
			continue
		}
		c, ok := byID[m.CandidateID]
		if !ok || !c.HasValidContact() {
			n.logger.Debug(ctx, "match above threshold without a reachable candidate",
				logger.String("posting", posting.ID),
				logger.String("candidate", m.CandidateID),
			)
			continue
		}
		if n.ledger != nil && n.ledger.SeenAndRecord(ctx, posting.ID, c.ID) {
			metrics.RecordNotificationSuppressed()
			continue
		}

		band := n.combiner.Interpret(m.MatchPercentage)
		grouped := n.groupMatched(m.MatchedSkills)
		missing := orderByWeight(m.MissingSkills, weights)
		rec := model.NotificationRecord{
			ID:              n.newID(),
			CandidateID:     c.ID,
			PostingID:       posting.ID,
			Message:         Message(posting.Title, band, m.MatchPercentage, grouped, missing),
			MatchPercentage: m.MatchPercentage,
			MatchedSkills:   m.MatchedSkills,
			MissingSkills:   missing,
			Method:          m.Method,
			SemanticScore:   m.SemanticScore,
			TFIDFScore:      m.TFIDFScore,
			HybridScore:     m.HybridScore,
			Type:            model.NotificationTypeJobMatch,
			StudentAction:   model.StudentActionNotApplied,
			CreatedAt:       n.now(),
		}

		if err := n.store.SaveNotification(ctx, rec); err != nil {
			metrics.RecordErrorByComponent("notify", "store")
			n.logger.Error(ctx, "failed to store notification",
				logger.String("posting", posting.ID),
				logger.String("candidate", c.ID),
				logger.Error(err),
			)
			if n.ledger != nil {
				n.ledger.Forget(ctx, posting.ID, c.ID)
			}
			continue
		}
		metrics.RecordNotificationCreated()
		out = append(out, rec)

		n.enqueue(ctx, model.Delivery{
			Record:    rec,
			Recipient: strings.TrimSpace(c.Email),
			Posting:   posting,
			Band:      band,
			Grouped:   grouped,
		})
	}
	return out
}

func (n *Notifier) eligible(m model.MatchResult) bool {
	switch m.Method {
	case model.MethodError, model.MethodInvalidCandidate:
		return false
	}
	return m.MatchPercentage >= n.threshold
}

func (n *Notifier) enqueue(ctx context.Context, d model.Delivery) {
	if n.queue == nil {
		return
	}
	if n.queue.Enqueue(ctx, d) {
		return
	}
	metrics.RecordDelivery("dropped", 0)
	n.logger.Warn(ctx, "delivery not enqueued; notification stored but not sent",
		logger.String("notification", d.Record.ID),
		logger.String("candidate", d.Record.CandidateID),
		logger.String("reason", dropReason(ctx, n.queue)),
	)
}

// dropReason tells a closed queue and a cancelled context apart from a full queue.
func dropReason(ctx context.Context, q DeliveryQueue) string {
	if c, ok := q.(interface{ IsClosed() bool }); ok && c.IsClosed() {
		return "closed"
	}
	if ctx.Err() != nil {
		return "cancelled"
	}
	return "full"
}

// postingWeights maps each canonical posting skill to its weight and
// declaration position.
func (n *Notifier) postingWeights(p model.Posting) map[string]weighted {
	out := make(map[string]weighted, len(p.Skills))
	for i, s := range p.Skills {
		cs, ok := n.registry.Normalize(s.Name)
		if !ok {
			continue
		}
		w := s.Weight
		if w <= 0 {
			w = 1
		}
		if cur, seen := out[cs.Name]; seen && cur.weight >= w {
			continue
		}
		out[cs.Name] = weighted{weight: w, pos: i}
	}
	return out
}

func (n *Notifier) groupMatched(matched []string) map[string][]string {
	grouped := make(map[string][]string)
	for cat, set := range n.registry.Categorize(skills.NewSet(matched...)) {
		grouped[string(cat)] = set.Sorted()
	}
	return grouped
}

type weighted struct {
	weight float64
	pos    int
}

// orderByWeight sorts skills by posting weight, heaviest first, then by
// declaration order.
func orderByWeight(names []string, weights map[string]weighted) []string {
	out := append([]string{}, names...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := weights[out[i]], weights[out[j]]
		if a.weight != b.weight {
			return a.weight > b.weight
		}
		return a.pos < b.pos
	})
	return out
}

// Message renders the notification text.
func Message(title, band string, pct float64, grouped map[string][]string, missing []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a %s match (%s%%) for %s.", band, scoring.FormatPercent(pct), title)

	parts := make([]string, 0, len(grouped))
	for _, cat := range skills.Categories {
		if names, ok := grouped[string(cat)]; ok && len(names) > 0 {
			parts = append(parts, fmt.Sprintf("%s: %s", cat, strings.Join(names, ", ")))
		}
	}
	if len(parts) > 0 {
		fmt.Fprintf(&b, " Matched skills: %s.", strings.Join(parts, "; "))
	}
	if len(missing) > 0 {
		fmt.Fprintf(&b, " Skills to develop: %s.", strings.Join(missing, ", "))
	}
	return b.String()
}
