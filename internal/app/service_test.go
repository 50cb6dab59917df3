package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/talentmatch/internal/adapters/repository"
	service "github.com/okian/talentmatch/internal/app"
	"github.com/okian/talentmatch/internal/domain/model"
	"github.com/okian/talentmatch/internal/domain/scoring"
	"github.com/okian/talentmatch/internal/domain/skills"
	"github.com/okian/talentmatch/pkg/logger"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// localScorer scores with the deterministic fallback, optionally waiting on a gate.
type localScorer struct {
	gate chan struct{}
}

func (l localScorer) Score(ctx context.Context, candidate, posting skills.Set) scoring.Result {
	if l.gate != nil {
		<-l.gate
	}
	return scoring.Fallback(candidate, posting)
}

type recordingMessenger struct {
	mu   sync.Mutex
	sent []model.Delivery
}

func (m *recordingMessenger) Send(_ context.Context, d model.Delivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, d)
	return nil
}

func (m *recordingMessenger) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// failingSnapshots refuses every write.
type failingSnapshots struct{ repository.SnapshotStore }

func (failingSnapshots) ReplaceSnapshot(context.Context, model.Snapshot) error {
	return errors.New("connection reset")
}

// flakyGenerations hands out the first generation, then fails to reserve more.
type flakyGenerations struct {
	repository.SnapshotStore
	mu    sync.Mutex
	calls int
}

func (f *flakyGenerations) NextGeneration(ctx context.Context, postingID string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls > 1 {
		return 0, errors.New("INCR: connection refused")
	}
	return f.SnapshotStore.NextGeneration(ctx, postingID)
}

func analyst() model.Posting {
	return model.Posting{
		ID:    "job-1",
		Title: "Data Analyst",
		Skills: []model.RequiredSkill{
			{Name: "Python", Weight: 2},
			{Name: "SQL", Weight: 2},
			{Name: "Tableau", Weight: 1},
		},
	}
}

func startService(opts ...service.Option) *service.Service {
	svc := service.New(append([]service.Option{
		service.WithScorer(localScorer{}),
		service.WithWorkerCount(2),
		service.WithShutdownTimeout(5 * time.Second),
	}, opts...)...)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		svc := service.New()

		Convey("Operations report it is not started", func() {
			_, err := svc.TriggerMatch(context.Background(), "job-1")
			So(err, ShouldEqual, service.ErrNotStarted)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})

		Convey("Stop is a no-op", func() {
			So(func() { svc.Stop() }, ShouldNotPanic)
		})
	})

	Convey("Given a started service", t, func() {
		svc := startService()
		defer svc.Stop()

		Convey("Starting again is harmless", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
		})

		Convey("Stats describe the running components", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, true)
			So(stats["workerCount"], ShouldEqual, 2)
			So(stats["runningTasks"], ShouldEqual, 0)
			So(stats["postings"], ShouldEqual, 0)
		})
	})
}

func TestService_Inputs(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service", t, func() {
		svc := startService()
		defer svc.Stop()

		Convey("Blank ids are rejected", func() {
			So(errors.Is(svc.UpsertCandidate(ctx, model.Candidate{ID: " "}), service.ErrInvalidInput), ShouldBeTrue)
			_, err := svc.UpsertPosting(ctx, model.Posting{})
			So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("Negative weights are rejected", func() {
			_, err := svc.UpsertPosting(ctx, model.Posting{ID: "j", Skills: []model.RequiredSkill{{Name: "go", Weight: -1}}})
			So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("Unknown entities are not found", func() {
			_, err := svc.TriggerMatch(ctx, "missing")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			_, err = svc.Matches(ctx, "missing", 0)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			_, err = svc.Notifications(ctx, "nobody")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			_, err = svc.MarkRead(ctx, "n-x")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestService_TriggerMatch(t *testing.T) {
	ctx := context.Background()

	Convey("Given candidates and a posting", t, func() {
		msgr := &recordingMessenger{}
		svc := startService(service.WithMessenger(msgr))
		defer svc.Stop()

		So(svc.UpsertCandidate(ctx, model.Candidate{ID: "alice", Email: "alice@example.com", Skills: []string{"python", "sql", "tableau"}}), ShouldBeNil)
		So(svc.UpsertCandidate(ctx, model.Candidate{ID: "bob", Email: "bob@example.com", Skills: []string{"Python", "SQL"}}), ShouldBeNil)
		So(svc.UpsertCandidate(ctx, model.Candidate{ID: "carol", Email: "broken", Skills: []string{"python"}}), ShouldBeNil)

		out, err := svc.UpsertPosting(ctx, analyst())
		So(err, ShouldBeNil)

		Convey("The upsert completes within the deadline", func() {
			So(out.Status, ShouldEqual, service.StatusCompleted)
			So(out.Total, ShouldEqual, 3)
			So(out.Matched, ShouldEqual, 2)
			So(out.Notified, ShouldEqual, 1)
			So(out.Persisted, ShouldBeTrue)
		})

		Convey("The snapshot holds one entry per candidate", func() {
			snap, err := svc.Matches(ctx, "job-1", 0)
			So(err, ShouldBeNil)
			So(snap.Entries, ShouldHaveLength, 3)

			Convey("And can be filtered by percentage", func() {
				top, err := svc.Matches(ctx, "job-1", 70)
				So(err, ShouldBeNil)
				So(top.Entries, ShouldHaveLength, 1)
				So(top.Entries[0].CandidateID, ShouldEqual, "alice")
			})
		})

		Convey("Only the candidate above the threshold is notified", func() {
			list, err := svc.Notifications(ctx, "alice")
			So(err, ShouldBeNil)
			So(list, ShouldHaveLength, 1)
			So(list[0].PostingID, ShouldEqual, "job-1")
			So(list[0].MatchPercentage, ShouldEqual, 100)

			none, err := svc.Notifications(ctx, "bob")
			So(err, ShouldBeNil)
			So(none, ShouldBeEmpty)

			Convey("And the record can be marked read", func() {
				n, err := svc.MarkRead(ctx, list[0].ID)
				So(err, ShouldBeNil)
				So(n.IsRead, ShouldBeTrue)
			})
		})

		Convey("A recompute with a different population replaces the snapshot", func() {
			So(svc.UpsertCandidate(ctx, model.Candidate{ID: "dave", Email: "dave@example.com", Skills: []string{"tableau"}}), ShouldBeNil)
			_, err := svc.TriggerMatch(ctx, "job-1")
			So(err, ShouldBeNil)

			snap, _ := svc.Matches(ctx, "job-1", 0)
			So(snap.Entries, ShouldHaveLength, 4)
			So(snap.Generation, ShouldEqual, 2)
		})

		Convey("Without dedupe a recompute notifies again", func() {
			out, err := svc.TriggerMatch(ctx, "job-1")
			So(err, ShouldBeNil)
			So(out.Notified, ShouldEqual, 1)
			list, _ := svc.Notifications(ctx, "alice")
			So(list, ShouldHaveLength, 2)
		})

		Convey("Stop drains queued deliveries", func() {
			svc.Stop()
			So(msgr.count(), ShouldEqual, 1)
		})
	})

	Convey("Given dedupe is enabled", t, func() {
		svc := startService(service.WithDedupe(true, 100))
		defer svc.Stop()
		So(svc.UpsertCandidate(ctx, model.Candidate{ID: "alice", Email: "alice@example.com", Skills: []string{"python", "sql", "tableau"}}), ShouldBeNil)

		first, err := svc.UpsertPosting(ctx, analyst())
		So(err, ShouldBeNil)
		second, err := svc.TriggerMatch(ctx, "job-1")
		So(err, ShouldBeNil)

		Convey("Then a recompute does not notify twice", func() {
			So(first.Notified, ShouldEqual, 1)
			So(second.Notified, ShouldEqual, 0)
			So(svc.GetStats()["dedupeEntries"], ShouldEqual, 1)
		})
	})

	Convey("Given snapshot persistence fails", t, func() {
		mem := repository.NewMemoryStore()
		svc := startService(service.WithMemoryStore(mem), service.WithSnapshotStore(failingSnapshots{mem}))
		defer svc.Stop()
		So(svc.UpsertCandidate(ctx, model.Candidate{ID: "alice", Email: "alice@example.com", Skills: []string{"python", "sql", "tableau"}}), ShouldBeNil)

		out, err := svc.UpsertPosting(ctx, analyst())

		Convey("Then the computation still completes and notifies", func() {
			So(err, ShouldBeNil)
			So(out.Status, ShouldEqual, service.StatusCompleted)
			So(out.Persisted, ShouldBeFalse)
			So(out.Notified, ShouldEqual, 1)
		})
	})

	Convey("Given reserving a snapshot generation fails after the first batch", t, func() {
		mem := repository.NewMemoryStore()
		svc := startService(service.WithMemoryStore(mem), service.WithSnapshotStore(&flakyGenerations{SnapshotStore: mem}))
		defer svc.Stop()
		So(svc.UpsertCandidate(ctx, model.Candidate{ID: "alice", Email: "alice@example.com", Skills: []string{"python", "sql", "tableau"}}), ShouldBeNil)

		first, err := svc.UpsertPosting(ctx, analyst())
		So(err, ShouldBeNil)
		second, err := svc.TriggerMatch(ctx, "job-1")
		So(err, ShouldBeNil)

		Convey("Then the batch is treated as unpersisted, not stale, and still notifies", func() {
			So(first.Persisted, ShouldBeTrue)
			So(first.Notified, ShouldEqual, 1)
			So(second.Status, ShouldEqual, service.StatusCompleted)
			So(second.Matched, ShouldEqual, 1)
			So(second.Persisted, ShouldBeFalse)
			So(second.Notified, ShouldEqual, 1)
		})

		Convey("And the earlier snapshot is left in place", func() {
			snap, err := svc.Matches(ctx, "job-1", 0)
			So(err, ShouldBeNil)
			So(snap.Generation, ShouldEqual, first.Generation)
			So(snap.Entries, ShouldHaveLength, 1)
		})
	})
}

func TestService_BatchDeadline(t *testing.T) {
	ctx := context.Background()

	Convey("Given a scorer slower than the batch deadline", t, func() {
		gate := make(chan struct{})
		svc := startService(
			service.WithScorer(localScorer{gate: gate}),
			service.WithBatchDeadline(50*time.Millisecond),
		)
		defer svc.Stop()
		So(svc.UpsertCandidate(ctx, model.Candidate{ID: "alice", Email: "alice@example.com", Skills: []string{"python", "sql", "tableau"}}), ShouldBeNil)

		reqCtx, cancel := context.WithCancel(ctx)
		out, err := svc.UpsertPosting(reqCtx, analyst())
		cancel()

		Convey("Then the trigger answers processing", func() {
			So(err, ShouldBeNil)
			So(out.Status, ShouldEqual, service.StatusProcessing)
			So(out.Total, ShouldEqual, 1)
			So(svc.Running(), ShouldEqual, 1)

			Convey("And the detached pipeline still finishes and persists", func() {
				close(gate)
				deadline := time.Now().Add(5 * time.Second)
				for svc.Running() > 0 && time.Now().Before(deadline) {
					time.Sleep(5 * time.Millisecond)
				}
				So(svc.Running(), ShouldEqual, 0)

				snap, err := svc.Matches(ctx, "job-1", 0)
				So(err, ShouldBeNil)
				So(snap.Entries, ShouldHaveLength, 1)
				list, _ := svc.Notifications(ctx, "alice")
				So(list, ShouldHaveLength, 1)
			})
		})
	})

	Convey("Given a pipeline still running at shutdown", t, func() {
		gate := make(chan struct{})
		mem := repository.NewMemoryStore()
		svc := startService(
			service.WithMemoryStore(mem),
			service.WithScorer(localScorer{gate: gate}),
			service.WithBatchDeadline(20*time.Millisecond),
		)
		So(svc.UpsertCandidate(ctx, model.Candidate{ID: "alice", Email: "alice@example.com", Skills: []string{"python"}}), ShouldBeNil)
		out, _ := svc.UpsertPosting(ctx, analyst())
		So(out.Status, ShouldEqual, service.StatusProcessing)

		Convey("Then Stop waits for it to finish", func() {
			go func() {
				time.Sleep(50 * time.Millisecond)
				close(gate)
			}()
			svc.Stop()

			snap, err := mem.Snapshot(ctx, "job-1")
			So(err, ShouldBeNil)
			So(snap.Entries, ShouldHaveLength, 1)
		})

		Convey("Then reads answer while Stop waits and new work is refused", func() {
			stopped := make(chan struct{})
			go func() {
				svc.Stop()
				close(stopped)
			}()
			deadline := time.Now().Add(5 * time.Second)
			for svc.UpsertCandidate(ctx, model.Candidate{ID: "bob"}) == nil && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}

			answered := make(chan int, 1)
			go func() {
				_ = svc.GetStats()
				answered <- svc.Running()
			}()
			select {
			case running := <-answered:
				So(running, ShouldEqual, 1)
			case <-time.After(time.Second):
				So("stats blocked behind Stop", ShouldBeEmpty)
			}
			So(svc.UpsertCandidate(ctx, model.Candidate{ID: "bob"}), ShouldEqual, service.ErrNotStarted)
			_, err := svc.TriggerMatch(ctx, "job-1")
			So(err, ShouldEqual, service.ErrNotStarted)

			close(gate)
			<-stopped
			So(svc.Running(), ShouldEqual, 0)
		})
	})
}
