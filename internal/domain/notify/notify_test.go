package notify_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/talentmatch/internal/domain/dedupe"
	"github.com/okian/talentmatch/internal/domain/model"
	"github.com/okian/talentmatch/internal/domain/notify"
	"github.com/okian/talentmatch/pkg/logger"
)

type memStore struct {
	mu    sync.Mutex
	saved []model.NotificationRecord
	fail  map[string]bool
}

func (s *memStore) SaveNotification(_ context.Context, n model.NotificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail[n.CandidateID] {
		return errors.New("disk full")
	}
	s.saved = append(s.saved, n)
	return nil
}

type memQueue struct {
	mu        sync.Mutex
	items     []model.Delivery
	accepting bool
}

func (q *memQueue) Enqueue(_ context.Context, d model.Delivery) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.accepting {
		return false
	}
	q.items = append(q.items, d)
	return true
}

// closedQueue refuses everything once closed.
type closedQueue struct{}

func (closedQueue) Enqueue(context.Context, model.Delivery) bool { return false }
func (closedQueue) IsClosed() bool                               { return true }

// warnLog keeps the fields of every warning.
type warnLog struct {
	mu       sync.Mutex
	messages []string
	fields   []map[string]any
}

func (l *warnLog) Warn(_ context.Context, msg string, fields ...logger.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kv := make(map[string]any, len(fields))
	for _, f := range fields {
		kv[f.Key] = f.Value
	}
	l.messages = append(l.messages, msg)
	l.fields = append(l.fields, kv)
}
func (l *warnLog) Info(context.Context, string, ...logger.Field)  {}
func (l *warnLog) Error(context.Context, string, ...logger.Field) {}
func (l *warnLog) Debug(context.Context, string, ...logger.Field) {}
func (l *warnLog) Named(string) logger.Logger                     { return l }
func (l *warnLog) With(...logger.Field) logger.Logger             { return l }

func match(id string, pct float64, method model.Method) model.MatchResult {
	return model.MatchResult{
		CandidateID:     id,
		MatchPercentage: pct,
		MatchedSkills:   []string{"go", "postgresql"},
		MissingSkills:   []string{"docker", "kubernetes"},
		Method:          method,
	}
}

func TestNotify(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	job := model.Posting{
		ID:    "job-1",
		Title: "Backend Engineer",
		Skills: []model.RequiredSkill{
			{Name: "Go", Weight: 3},
			{Name: "Docker", Weight: 1},
			{Name: "PostgreSQL", Weight: 2},
			{Name: "k8s", Weight: 2},
		},
	}
	people := []model.Candidate{
		{ID: "alice", Email: "alice@example.com"},
		{ID: "bob", Email: "bob@example.com"},
		{ID: "carol", Email: "carol@example.com"},
		{ID: "nomail", Email: ""},
	}

	Convey("Given a notifier with the default threshold", t, func() {
		store := &memStore{}
		queue := &memQueue{accepting: true}
		seq := 0
		n := notify.New(store, queue,
			notify.WithClock(func() time.Time { return fixed }),
			notify.WithIDGenerator(func() string { seq++; return fmt.Sprintf("n-%d", seq) }),
		)

		Convey("A match exactly at the threshold is included", func() {
			recs := n.Notify(ctx, job, []model.MatchResult{
				match("alice", 75, model.MethodSemantic),
				match("bob", 74.99, model.MethodSemantic),
			}, people)

			So(recs, ShouldHaveLength, 1)
			So(recs[0].CandidateID, ShouldEqual, "alice")
			So(store.saved, ShouldHaveLength, 1)
			So(queue.items, ShouldHaveLength, 1)
		})

		Convey("A record carries the full notification shape", func() {
			recs := n.Notify(ctx, job, []model.MatchResult{match("alice", 91.5, model.MethodSemantic)}, people)
			So(recs, ShouldHaveLength, 1)
			r := recs[0]
			So(r.ID, ShouldEqual, "n-1")
			So(r.PostingID, ShouldEqual, "job-1")
			So(r.IsRead, ShouldBeFalse)
			So(r.Type, ShouldEqual, model.NotificationTypeJobMatch)
			So(r.StudentAction, ShouldEqual, model.StudentActionNotApplied)
			So(r.CreatedAt, ShouldEqual, fixed)
			So(r.Method, ShouldEqual, model.MethodSemantic)

			Convey("Missing skills are ordered by posting weight", func() {
				So(r.MissingSkills, ShouldResemble, []string{"kubernetes", "docker"})
			})

			Convey("The message names the band, categories and gaps", func() {
				So(r.Message, ShouldEqual, "You are a Excellent match (91.50%) for Backend Engineer. "+
					"Matched skills: backend: go; database: postgresql. Skills to develop: kubernetes, docker.")
			})

			Convey("The delivery carries the recipient and grouping", func() {
				d := queue.items[0]
				So(d.Recipient, ShouldEqual, "alice@example.com")
				So(d.Band, ShouldEqual, "Excellent")
				So(d.Grouped["backend"], ShouldResemble, []string{"go"})
				So(d.Record.ID, ShouldEqual, r.ID)
			})
		})

		Convey("Candidates without a usable contact are skipped", func() {
			recs := n.Notify(ctx, job, []model.MatchResult{
				match("nomail", 99, model.MethodSemantic),
				match("ghost", 99, model.MethodSemantic),
			}, people)
			So(recs, ShouldBeEmpty)
		})

		Convey("Degraded results never notify", func() {
			low := notify.New(store, queue, notify.WithThreshold(0))
			recs := low.Notify(ctx, job, []model.MatchResult{
				match("alice", 0, model.MethodError),
				match("bob", 0, model.MethodInvalidCandidate),
				match("carol", 0, model.MethodNoSkills),
			}, people)
			So(recs, ShouldHaveLength, 1)
			So(recs[0].CandidateID, ShouldEqual, "carol")
		})

		Convey("A store failure skips only that candidate", func() {
			store.fail = map[string]bool{"alice": true}
			recs := n.Notify(ctx, job, []model.MatchResult{
				match("alice", 90, model.MethodSemantic),
				match("bob", 90, model.MethodSemantic),
			}, people)
			So(recs, ShouldHaveLength, 1)
			So(recs[0].CandidateID, ShouldEqual, "bob")
			So(queue.items, ShouldHaveLength, 1)
		})

		Convey("A full delivery queue still keeps the record", func() {
			queue.accepting = false
			recs := n.Notify(ctx, job, []model.MatchResult{match("alice", 80, model.MethodSimple)}, people)
			So(recs, ShouldHaveLength, 1)
			So(store.saved, ShouldHaveLength, 1)
			So(queue.items, ShouldBeEmpty)
		})

		Convey("A refused delivery is logged with why it was refused", func() {
			queue.accepting = false
			full := &warnLog{}
			notify.New(store, queue, notify.WithLogger(full)).
				Notify(ctx, job, []model.MatchResult{match("alice", 80, model.MethodSimple)}, people)

			closed := &warnLog{}
			notify.New(store, closedQueue{}, notify.WithLogger(closed)).
				Notify(ctx, job, []model.MatchResult{match("alice", 80, model.MethodSimple)}, people)

			cancelled := &warnLog{}
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			notify.New(store, queue, notify.WithLogger(cancelled)).
				Notify(cctx, job, []model.MatchResult{match("alice", 80, model.MethodSimple)}, people)

			So(store.saved, ShouldHaveLength, 3)
			So(full.messages, ShouldResemble, []string{"delivery not enqueued; notification stored but not sent"})
			So(full.fields[0]["reason"], ShouldEqual, "full")
			So(closed.fields[0]["reason"], ShouldEqual, "closed")
			So(cancelled.fields[0]["reason"], ShouldEqual, "cancelled")
		})

		Convey("Without a ledger a recompute notifies again", func() {
			n.Notify(ctx, job, []model.MatchResult{match("alice", 80, model.MethodSimple)}, people)
			n.Notify(ctx, job, []model.MatchResult{match("alice", 80, model.MethodSimple)}, people)
			So(store.saved, ShouldHaveLength, 2)
		})
	})

	Convey("Given a notifier with a ledger", t, func() {
		store := &memStore{}
		ledger := dedupe.NewInMemoryLedger()
		n := notify.New(store, nil, notify.WithLedger(ledger), notify.WithThreshold(60))

		Convey("A recompute does not notify the same pair twice", func() {
			first := n.Notify(ctx, job, []model.MatchResult{match("alice", 70, model.MethodSimple)}, people)
			second := n.Notify(ctx, job, []model.MatchResult{match("alice", 70, model.MethodSimple)}, people)
			So(first, ShouldHaveLength, 1)
			So(second, ShouldBeEmpty)
			So(ledger.Size(), ShouldEqual, 1)
		})

		Convey("A failed save can be retried on the next recompute", func() {
			store.fail = map[string]bool{"alice": true}
			So(n.Notify(ctx, job, []model.MatchResult{match("alice", 70, model.MethodSimple)}, people), ShouldBeEmpty)
			store.fail = nil
			So(n.Notify(ctx, job, []model.MatchResult{match("alice", 70, model.MethodSimple)}, people), ShouldHaveLength, 1)
		})
	})
}

func TestMessage(t *testing.T) {
	Convey("Integer percentages render without decimals", t, func() {
		msg := notify.Message("Analyst", "Good", 80, nil, nil)
		So(msg, ShouldEqual, "You are a Good match (80%) for Analyst.")
	})
}
