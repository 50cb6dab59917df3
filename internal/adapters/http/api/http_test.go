package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/talentmatch/internal/adapters/http/api"
	"github.com/okian/talentmatch/internal/adapters/repository"
	service "github.com/okian/talentmatch/internal/app"
	"github.com/okian/talentmatch/internal/domain/model"
	"github.com/okian/talentmatch/internal/domain/scoring"
	"github.com/okian/talentmatch/internal/domain/skills"
	"github.com/okian/talentmatch/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type mockDependencies struct {
	candidates []model.Candidate
	postings   []model.Posting
	outcome    service.Outcome
	snapshot   model.Snapshot
	minPct     float64
	err        error
}

func (m *mockDependencies) UpsertCandidate(_ context.Context, c model.Candidate) error {
	m.candidates = append(m.candidates, c)
	return m.err
}

func (m *mockDependencies) Notifications(_ context.Context, candidateID string) ([]model.NotificationRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return nil, nil
}

func (m *mockDependencies) MarkRead(_ context.Context, id string) (model.NotificationRecord, error) {
	if m.err != nil {
		return model.NotificationRecord{}, m.err
	}
	return model.NotificationRecord{ID: id, IsRead: true}, nil
}

func (m *mockDependencies) UpsertPosting(_ context.Context, p model.Posting) (service.Outcome, error) {
	m.postings = append(m.postings, p)
	if m.err != nil {
		return service.Outcome{}, m.err
	}
	return m.outcome, nil
}

func (m *mockDependencies) TriggerMatch(_ context.Context, postingID string) (service.Outcome, error) {
	if m.err != nil {
		return service.Outcome{}, m.err
	}
	out := m.outcome
	out.PostingID = postingID
	return out, nil
}

func (m *mockDependencies) Matches(_ context.Context, postingID string, minPct float64) (model.Snapshot, error) {
	m.minPct = minPct
	if m.err != nil {
		return model.Snapshot{}, m.err
	}
	return m.snapshot, nil
}

type mockStatsProvider struct {
	stats map[string]any
}

func (m *mockStatsProvider) GetStats() map[string]any {
	return m.stats
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestServer_Routes(t *testing.T) {
	Convey("Given an API server over mocked dependencies", t, func() {
		deps := &mockDependencies{outcome: service.Outcome{Status: service.StatusCompleted, Total: 3, Matched: 3}}
		stats := &mockStatsProvider{stats: map[string]any{"started": true}}
		h := api.NewServer(deps, stats).Routes(context.Background())

		Convey("Then health answers JSON ok", func() {
			w := serve(h, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
		})

		Convey("Then metrics are exposed in prometheus format", func() {
			serve(h, http.MethodGet, "/healthz", "")
			w := serve(h, http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "http_requests_total")
		})

		Convey("Then stats come from the provider", func() {
			w := serve(h, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("Then unknown paths are 404", func() {
			w := serve(h, http.MethodGet, "/leaderboard", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When a candidate is upserted", func() {
			w := serve(h, http.MethodPut, "/candidates/c-1", `{"email":"a@x.io","skills":["Go","SQL"]}`)

			Convey("Then the path id is used", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.candidates, ShouldHaveLength, 1)
				So(deps.candidates[0].ID, ShouldEqual, "c-1")
				So(deps.candidates[0].Skills, ShouldResemble, []string{"Go", "SQL"})
			})
		})

		Convey("When a candidate body is malformed", func() {
			w := serve(h, http.MethodPut, "/candidates/c-1", `{"email":`)

			Convey("Then it is a 400", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, `"code":"bad_request"`)
			})
		})

		Convey("When a posting is upserted with a default weight", func() {
			w := serve(h, http.MethodPut, "/postings/p-1",
				`{"title":"Data Analyst","skills":[{"name":"Python","weight":2},{"name":"SQL"}]}`)

			Convey("Then it is stored with weight 1 and reports the outcome", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.postings, ShouldHaveLength, 1)
				So(deps.postings[0].Skills, ShouldResemble, []model.RequiredSkill{
					{Name: "Python", Weight: 2},
					{Name: "SQL", Weight: 1},
				})
				var out service.Outcome
				So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
				So(out.Status, ShouldEqual, service.StatusCompleted)
				So(out.Matched, ShouldEqual, 3)
			})
		})

		Convey("When a posting has a negative weight or a blank skill", func() {
			neg := serve(h, http.MethodPut, "/postings/p-1", `{"skills":[{"name":"Go","weight":-1}]}`)
			blank := serve(h, http.MethodPut, "/postings/p-1", `{"skills":[{"name":"  "}]}`)

			Convey("Then both are rejected before reaching the service", func() {
				So(neg.Code, ShouldEqual, http.StatusBadRequest)
				So(blank.Code, ShouldEqual, http.StatusBadRequest)
				So(deps.postings, ShouldBeEmpty)
			})
		})

		Convey("When matching is still running at the deadline", func() {
			deps.outcome = service.Outcome{Status: service.StatusProcessing, Total: 3}
			w := serve(h, http.MethodPost, "/postings/p-1/match", "")

			Convey("Then the trigger is accepted", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(w.Body.String(), ShouldContainSubstring, `"status":"processing"`)
				So(w.Body.String(), ShouldContainSubstring, `"postingId":"p-1"`)
			})
		})

		Convey("When matches are read with a minimum", func() {
			deps.snapshot = model.Snapshot{PostingID: "p-1", Generation: 2}
			w := serve(h, http.MethodGet, "/postings/p-1/matches?min=75", "")

			Convey("Then the filter is passed through and entries are never null", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.minPct, ShouldEqual, 75)
				So(w.Body.String(), ShouldContainSubstring, `"entries":[]`)
			})
		})

		Convey("When the minimum is not a percentage", func() {
			for _, q := range []string{"abc", "-1", "101", "NaN"} {
				w := serve(h, http.MethodGet, "/postings/p-1/matches?min="+q, "")
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("When a notification is marked read", func() {
			w := serve(h, http.MethodPost, "/notifications/n-1/read", "")

			Convey("Then the updated record is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"isRead":true`)
			})
		})

		Convey("When listing notifications for a candidate with none", func() {
			w := serve(h, http.MethodGet, "/candidates/c-1/notifications", "")

			Convey("Then an empty array is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(w.Body.String()), ShouldEqual, "[]")
			})
		})
	})
}

func TestServer_ErrorMapping(t *testing.T) {
	Convey("Given dependencies that fail", t, func() {
		cases := []struct {
			err  error
			code int
		}{
			{fmt.Errorf("posting p-1: %w", repository.ErrNotFound), http.StatusNotFound},
			{fmt.Errorf("%w: posting id is required", service.ErrInvalidInput), http.StatusBadRequest},
			{service.ErrNotStarted, http.StatusServiceUnavailable},
			{fmt.Errorf("boom"), http.StatusInternalServerError},
		}
		for _, tc := range cases {
			deps := &mockDependencies{err: tc.err}
			h := api.NewServer(deps, &mockStatsProvider{}).Routes(context.Background())

			So(serve(h, http.MethodPost, "/postings/p-1/match", "").Code, ShouldEqual, tc.code)
			So(serve(h, http.MethodGet, "/postings/p-1/matches", "").Code, ShouldEqual, tc.code)
			So(serve(h, http.MethodPost, "/notifications/n-1/read", "").Code, ShouldEqual, tc.code)
			So(serve(h, http.MethodGet, "/candidates/c-1/notifications", "").Code, ShouldEqual, tc.code)
		}
	})
}

type fallbackScorer struct{}

func (fallbackScorer) Score(_ context.Context, candidate, posting skills.Set) scoring.Result {
	return scoring.Fallback(candidate, posting)
}

func TestServer_EndToEnd(t *testing.T) {
	Convey("Given the API over a running service", t, func() {
		svc := service.New(
			service.WithScorer(fallbackScorer{}),
			service.WithWorkerCount(1),
			service.WithBatchDeadline(5*time.Second),
			service.WithShutdownTimeout(5*time.Second),
		)
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()
		h := api.NewServer(svc, svc).Routes(context.Background())

		So(serve(h, http.MethodPut, "/candidates/ana", `{"email":"ana@example.com","skills":["python","sql","tableau"]}`).Code, ShouldEqual, http.StatusOK)
		So(serve(h, http.MethodPut, "/candidates/bo", `{"email":"bo@example.com","skills":["excel"]}`).Code, ShouldEqual, http.StatusOK)

		Convey("When a posting is created", func() {
			w := serve(h, http.MethodPut, "/postings/job-1",
				`{"title":"Data Analyst","skills":[{"name":"Python"},{"name":"SQL"},{"name":"Tableau"}]}`)
			So(w.Code, ShouldEqual, http.StatusOK)

			Convey("Then the snapshot holds both candidates and the filter keeps the strong one", func() {
				var all model.Snapshot
				So(json.Unmarshal(serve(h, http.MethodGet, "/postings/job-1/matches", "").Body.Bytes(), &all), ShouldBeNil)
				So(all.Entries, ShouldHaveLength, 2)

				var strong model.Snapshot
				So(json.Unmarshal(serve(h, http.MethodGet, "/postings/job-1/matches?min=75", "").Body.Bytes(), &strong), ShouldBeNil)
				So(strong.Entries, ShouldHaveLength, 1)
				So(strong.Entries[0].CandidateID, ShouldEqual, "ana")
				So(strong.Entries[0].MatchPercentage, ShouldEqual, 100)
			})

			Convey("Then the strong candidate is notified and can mark it read", func() {
				var list []model.NotificationRecord
				So(json.Unmarshal(serve(h, http.MethodGet, "/candidates/ana/notifications", "").Body.Bytes(), &list), ShouldBeNil)
				So(list, ShouldHaveLength, 1)
				So(list[0].IsRead, ShouldBeFalse)

				w := serve(h, http.MethodPost, "/notifications/"+list[0].ID+"/read", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"isRead":true`)
			})
		})

		Convey("When matching an unknown posting", func() {
			w := serve(h, http.MethodPost, "/postings/missing/match", "")

			Convey("Then it is a 404", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}
