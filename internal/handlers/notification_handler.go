package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/coursehub/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// NotificationService is the interface that wraps methods for user notifications
type NotificationService interface {
	// List retrieves a paginated list of the user's notifications, newest first
	List(ctx context.Context, userID int, unreadOnly bool, page, count int) ([]models.Notification, error)
	// MarkRead marks one of the user's notifications as read
	MarkRead(ctx context.Context, id, userID int) error
	// MarkAllRead marks every notification of the user as read and returns how many changed
	MarkAllRead(ctx context.Context, userID int) (int64, error)
}

// NotificationHandler handles HTTP requests for notifications
type NotificationHandler struct {
	BaseHandler
	service NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(svc NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		service:     svc,
		BaseHandler: BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers all notification handler routes
func (h *NotificationHandler) RegisterRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/read-all", h.MarkAllRead)
		r.Post("/{id}/read", h.MarkRead)
	})
}

// List handles GET /notifications
// @Summary Get notifications
// @Tags notifications
// @Produce json
// @Param unread query bool false "Only unread notifications"
// @Param page query int false "Page number (default: 1)"
// @Param count query int false "Items per page (default: 20)"
// @Success 200 {array} models.Notification
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /notifications [get]
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := h.getUserID(r)
	if err != nil {
		h.RespondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	unreadOnly, _ := strconv.ParseBool(r.URL.Query().Get("unread"))
	page, count := pagination(r)

	notifications, err := h.service.List(r.Context(), userID, unreadOnly, page, count)
	if err != nil {
		h.RespondServiceError(w, err, "failed to get notifications")
		return
	}

	h.RespondJSON(w, http.StatusOK, notifications)
}

// MarkRead handles POST /notifications/{id}/read
// @Summary Mark a notification as read
// @Tags notifications
// @Param id path int true "Notification ID"
// @Success 204 "No Content"
// @Failure 404 {object} map[string]string "Notification not found"
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, err := h.getUserID(r)
	if err != nil {
		h.RespondError(w, http.StatusUnauthorized, err.Error())
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid notification ID")
		return
	}

	if err := h.service.MarkRead(r.Context(), id, userID); err != nil {
		h.RespondServiceError(w, err, "failed to mark notification as read")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MarkAllRead handles POST /notifications/read-all
// @Summary Mark every notification as read
// @Tags notifications
// @Produce json
// @Success 200 {object} map[string]any "Number of updated notifications"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, err := h.getUserID(r)
	if err != nil {
		h.RespondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	updated, err := h.service.MarkAllRead(r.Context(), userID)
	if err != nil {
		h.RespondServiceError(w, err, "failed to mark notifications as read")
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]any{"updated": updated})
}
