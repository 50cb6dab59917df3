package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/talentmatch/internal/domain/model"
)

// NotificationDependencies is the slice of Dependencies notification routes use.
type NotificationDependencies interface {
	MarkRead(ctx context.Context, notificationID string) (model.NotificationRecord, error)
}

// NotificationsHandler handles notification state changes.
type NotificationsHandler struct {
	deps NotificationDependencies
}

// NewNotificationsHandler creates a new notifications handler.
func NewNotificationsHandler(deps NotificationDependencies) *NotificationsHandler {
	return &NotificationsHandler{deps: deps}
}

// HandleMarkRead handles POST /notifications/{id}/read.
func (h *NotificationsHandler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.deps.MarkRead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}
