package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/talentmatch/internal/domain/model"
)

// CandidateDependencies is the slice of Dependencies candidate routes use.
type CandidateDependencies interface {
	UpsertCandidate(ctx context.Context, c model.Candidate) error
	Notifications(ctx context.Context, candidateID string) ([]model.NotificationRecord, error)
}

// CandidatesHandler handles candidate profile requests.
type CandidatesHandler struct {
	deps CandidateDependencies
}

// NewCandidatesHandler creates a new candidates handler.
func NewCandidatesHandler(deps CandidateDependencies) *CandidatesHandler {
	return &CandidatesHandler{deps: deps}
}

// candidateRequest mirrors the OpenAPI schema for PUT /candidates/{id}.
type candidateRequest struct {
	Email  string   `json:"email"`
	Skills []string `json:"skills"`
}

// HandlePut handles PUT /candidates/{id}.
func (h *CandidatesHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	var req candidateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	c := model.Candidate{ID: chi.URLParam(r, "id"), Email: req.Email, Skills: req.Skills}
	if c.Skills == nil {
		c.Skills = []string{}
	}
	if err := h.deps.UpsertCandidate(r.Context(), c); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// HandleNotifications handles GET /candidates/{id}/notifications.
func (h *CandidatesHandler) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	list, err := h.deps.Notifications(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if list == nil {
		list = []model.NotificationRecord{}
	}
	writeJSON(w, http.StatusOK, list)
}
