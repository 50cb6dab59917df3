package api

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/talentmatch/internal/app"
	"github.com/okian/talentmatch/internal/domain/model"
)

// PostingDependencies is the slice of Dependencies posting routes use.
type PostingDependencies interface {
	UpsertPosting(ctx context.Context, p model.Posting) (service.Outcome, error)
	TriggerMatch(ctx context.Context, postingID string) (service.Outcome, error)
	Matches(ctx context.Context, postingID string, minPct float64) (model.Snapshot, error)
}

// PostingsHandler handles posting upserts and match queries.
type PostingsHandler struct {
	deps PostingDependencies
}

// NewPostingsHandler creates a new postings handler.
func NewPostingsHandler(deps PostingDependencies) *PostingsHandler {
	return &PostingsHandler{deps: deps}
}

// postingRequest mirrors the OpenAPI schema for PUT /postings/{id}.
type postingRequest struct {
	Title  string         `json:"title"`
	Skills []skillRequest `json:"skills"`
}

type skillRequest struct {
	Name   string   `json:"name"`
	Weight *float64 `json:"weight,omitempty"`
}

func (p postingRequest) validate() error {
	for i, s := range p.Skills {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("skills[%d]: missing name", i)
		}
		if s.Weight != nil && *s.Weight < 0 {
			return fmt.Errorf("skills[%d]: weight must not be negative", i)
		}
	}
	return nil
}

func (p postingRequest) toPosting(id string) model.Posting {
	out := model.Posting{ID: id, Title: strings.TrimSpace(p.Title), Skills: make([]model.RequiredSkill, 0, len(p.Skills))}
	for _, s := range p.Skills {
		weight := 1.0
		if s.Weight != nil {
			weight = *s.Weight
		}
		out.Skills = append(out.Skills, model.RequiredSkill{Name: s.Name, Weight: weight})
	}
	return out
}

// HandlePut handles PUT /postings/{id}. The posting is stored and matched;
// the response is 200 when matching finished within the batch deadline and
// 202 while it is still running.
func (h *PostingsHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_posting"
	var req postingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	out, err := h.deps.UpsertPosting(r.Context(), req.toPosting(chi.URLParam(r, "id")))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeOutcome(w, out)
}

// HandleMatch handles POST /postings/{id}/match.
func (h *PostingsHandler) HandleMatch(w http.ResponseWriter, r *http.Request) {
	out, err := h.deps.TriggerMatch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeOutcome(w, out)
}

// HandleMatches handles GET /postings/{id}/matches?min=.
func (h *PostingsHandler) HandleMatches(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_matches"
	minPct, err := parseMin(r.URL.Query().Get("min"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	snap, err := h.deps.Matches(r.Context(), chi.URLParam(r, "id"), minPct)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if snap.Entries == nil {
		snap.Entries = []model.MatchResult{}
	}
	writeJSON(w, http.StatusOK, snap)
}

func writeOutcome(w http.ResponseWriter, out service.Outcome) {
	status := http.StatusOK
	if out.Status == service.StatusProcessing {
		status = http.StatusAccepted
	}
	writeJSON(w, status, out)
}

func parseMin(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.New("min must be a number")
	}
	if math.IsNaN(v) || v < 0 || v > 100 {
		return 0, errors.New("min must be within [0,100]")
	}
	return v, nil
}
