package matching_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/talentmatch/internal/adapters/scoringapi"
	"github.com/okian/talentmatch/internal/domain/matching"
	"github.com/okian/talentmatch/internal/domain/model"
	"github.com/okian/talentmatch/internal/domain/scoring"
	"github.com/okian/talentmatch/internal/domain/skills"
)

// fallbackScorer always uses the local scorer.
type fallbackScorer struct{}

func (fallbackScorer) Score(_ context.Context, candidate, posting skills.Set) scoring.Result {
	return scoring.Fallback(candidate, posting)
}

// panicScorer panics for one poisoned skill.
type panicScorer struct{ poison string }

func (p panicScorer) Score(_ context.Context, candidate, posting skills.Set) scoring.Result {
	if candidate.Has(p.poison) {
		panic("boom")
	}
	return scoring.Fallback(candidate, posting)
}

// gateScorer blocks the "slow" candidate until the "fast" one has been scored.
type gateScorer struct {
	fastDone chan struct{}
	once     sync.Once
}

func (g *gateScorer) Score(_ context.Context, candidate, posting skills.Set) scoring.Result {
	if candidate.Has("slow") {
		select {
		case <-g.fastDone:
		case <-time.After(2 * time.Second):
			return scoring.Result{Method: model.MethodError}
		}
	} else {
		g.once.Do(func() { close(g.fastDone) })
	}
	return scoring.Fallback(candidate, posting)
}

func candidate(id string, skillNames ...string) model.Candidate {
	return model.Candidate{ID: id, Email: id + "@example.com", Skills: skillNames}
}

func posting(skillNames ...string) model.Posting {
	p := model.Posting{ID: "job-1", Title: "Data Analyst"}
	for _, s := range skillNames {
		p.Skills = append(p.Skills, model.RequiredSkill{Name: s, Weight: 1})
	}
	return p
}

func TestMatchAll(t *testing.T) {
	ctx := context.Background()
	job := posting("Python", "SQL", "Tableau")

	Convey("Given a matcher using the local scorer", t, func() {
		m := matching.New(fallbackScorer{}, matching.WithConcurrency(4))

		Convey("Every candidate gets exactly one result in input order", func() {
			cands := []model.Candidate{
				candidate("alice", "python", "SQL"),
				candidate("bob", "Tableau"),
				candidate("carol", "python3", "sql", "tableau"),
			}
			res := m.MatchAll(ctx, cands, job)
			So(res, ShouldHaveLength, 3)
			So(res[0].CandidateID, ShouldEqual, "alice")
			So(res[0].MatchPercentage, ShouldEqual, 67)
			So(res[0].MatchedSkills, ShouldResemble, []string{"python", "sql"})
			So(res[0].MissingSkills, ShouldResemble, []string{"tableau"})
			So(res[0].Band, ShouldEqual, "Fair")
			So(res[1].MatchPercentage, ShouldEqual, 33)
			So(res[2].MatchPercentage, ShouldEqual, 100)
			So(res[2].Band, ShouldEqual, "Excellent")
			So(*res[2].HybridScore, ShouldEqual, 1)
			So(res[2].ComputedAt.IsZero(), ShouldBeFalse)
		})

		Convey("A candidate with no skills scores zero and misses everything", func() {
			res := m.MatchAll(ctx, []model.Candidate{candidate("dave")}, job)
			So(res[0].Method, ShouldEqual, model.MethodNoSkills)
			So(res[0].MatchPercentage, ShouldEqual, 0)
			So(res[0].MissingSkills, ShouldResemble, []string{"python", "sql", "tableau"})
		})

		Convey("A posting with no skills scores zero for everyone", func() {
			res := m.MatchAll(ctx, []model.Candidate{candidate("alice", "go"), candidate("bob")}, posting())
			for _, r := range res {
				So(r.MatchPercentage, ShouldEqual, 0)
				So(r.Method, ShouldEqual, model.MethodNoSkills)
			}
		})

		Convey("An empty population yields no results", func() {
			So(m.MatchAll(ctx, nil, job), ShouldBeEmpty)
		})
	})

	Convey("Given one malformed candidate among valid ones", t, func() {
		m := matching.New(fallbackScorer{})
		cands := []model.Candidate{
			candidate("alice", "python"),
			{ID: "bob", Email: "not-an-address", Skills: []string{"sql"}},
			{ID: "  ", Email: "x@example.com", Skills: []string{"sql"}},
			{ID: "erin", Email: "erin@example.com", Skills: []string{" ", "!!"}},
			candidate("carol", "sql", "tableau"),
		}
		res := m.MatchAll(ctx, cands, job)

		Convey("Then only the bad records are degraded", func() {
			So(res, ShouldHaveLength, 5)
			So(res[0].Method, ShouldEqual, model.MethodSimple)
			So(res[1].Method, ShouldEqual, model.MethodError)
			So(res[1].MatchPercentage, ShouldEqual, 0)
			So(res[1].MissingSkills, ShouldResemble, []string{"python", "sql", "tableau"})
			So(res[2].Method, ShouldEqual, model.MethodInvalidCandidate)
			So(res[3].Method, ShouldEqual, model.MethodError)
			So(res[4].Method, ShouldEqual, model.MethodSimple)
			So(res[4].MatchPercentage, ShouldEqual, 67)
		})
	})

	Convey("Given a scorer that panics for one candidate", t, func() {
		m := matching.New(panicScorer{poison: "cobol"})
		res := m.MatchAll(ctx, []model.Candidate{
			candidate("alice", "python"),
			candidate("bob", "cobol"),
		}, job)

		Convey("Then the panic is contained to that candidate", func() {
			So(res[0].Method, ShouldEqual, model.MethodSimple)
			So(res[1].Method, ShouldEqual, model.MethodError)
			So(res[1].Reason, ShouldContainSubstring, "panicked")
		})
	})

	Convey("Given an unreachable scoring service", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		client := scoringapi.New(scoringapi.WithBaseURL(url), scoringapi.WithRetryAttempts(1))
		m := matching.New(client, matching.WithConcurrency(8))

		cands := make([]model.Candidate, 0, 20)
		for i := 0; i < 20; i++ {
			cands = append(cands, candidate(fmt.Sprintf("c-%02d", i), "python", "sql"))
		}
		res := m.MatchAll(ctx, cands, job)

		Convey("Then every candidate falls back to the simple scorer", func() {
			So(res, ShouldHaveLength, 20)
			for _, r := range res {
				So(r.Method, ShouldEqual, model.MethodSimple)
				So(r.MatchPercentage, ShouldEqual, 67)
				So(r.Reason, ShouldEqual, scoring.ReasonNetwork)
			}
		})
	})

	Convey("Given a slow candidate ahead of a fast one", t, func() {
		g := &gateScorer{fastDone: make(chan struct{})}
		m := matching.New(g, matching.WithConcurrency(2))
		res := m.MatchAll(ctx, []model.Candidate{
			candidate("slow-one", "slow", "python"),
			candidate("fast-one", "python"),
		}, job)

		Convey("Then the later candidate does not wait for the earlier one", func() {
			So(res[0].Method, ShouldEqual, model.MethodSimple)
			So(res[1].Method, ShouldEqual, model.MethodSimple)
		})
	})
}
