// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/talentmatch/internal/adapters/repository"
	service "github.com/okian/talentmatch/internal/app"
	"github.com/okian/talentmatch/internal/domain/model"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	UpsertCandidate(ctx context.Context, c model.Candidate) error
	Notifications(ctx context.Context, candidateID string) ([]model.NotificationRecord, error)
	MarkRead(ctx context.Context, notificationID string) (model.NotificationRecord, error)

	// UpsertPosting stores a posting and recomputes its matches.
	UpsertPosting(ctx context.Context, p model.Posting) (service.Outcome, error)
	TriggerMatch(ctx context.Context, postingID string) (service.Outcome, error)
	Matches(ctx context.Context, postingID string, minPct float64) (model.Snapshot, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler       *HealthHandler
	statsHandler        *StatsHandler
	candidatesHandler   *CandidatesHandler
	postingsHandler     *PostingsHandler
	notificationHandler *NotificationsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:       NewHealthHandler(),
		statsHandler:        NewStatsHandler(statsProvider),
		candidatesHandler:   NewCandidatesHandler(deps),
		postingsHandler:     NewPostingsHandler(deps),
		notificationHandler: NewNotificationsHandler(deps),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/metrics", s.healthHandler.HandleMetrics)
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Put("/candidates/{id}", MetricsMiddleware(s.candidatesHandler.HandlePut, "candidates"))
	r.Get("/candidates/{id}/notifications", MetricsMiddleware(s.candidatesHandler.HandleNotifications, "candidate_notifications"))
	r.Post("/notifications/{id}/read", MetricsMiddleware(s.notificationHandler.HandleMarkRead, "notifications_read"))

	r.Put("/postings/{id}", MetricsMiddleware(s.postingsHandler.HandlePut, "postings"))
	r.Post("/postings/{id}/match", MetricsMiddleware(s.postingsHandler.HandleMatch, "postings_match"))
	r.Get("/postings/{id}/matches", MetricsMiddleware(s.postingsHandler.HandleMatches, "postings_matches"))
}

// Routes returns a router with every API route registered.
func (s *Server) Routes(ctx context.Context) http.Handler {
	r := chi.NewRouter()
	s.Register(ctx, r)
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates errors coming back from Dependencies.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, repository.ErrInvalidID),
		errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}

// decodeJSON reads a size-capped JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return WrapKind("decode body", ErrBadRequest, err)
	}
	return nil
}
