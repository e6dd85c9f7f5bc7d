package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/coursehub/backend/internal/auth"
	"github.com/coursehub/backend/internal/curriculum"
	"github.com/coursehub/backend/internal/middleware"
	"github.com/coursehub/backend/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BaseHandler provides common handler functionality
type BaseHandler struct {
	Logger *zap.Logger
}

// RespondJSON sends a JSON response
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondError sends an error JSON response
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, map[string]string{"error": message})
}

// RespondServiceError logs a service error and sends it with the matching status code.
//
// Internal errors are replaced with "message" so that repository details do not leak to clients.
func (h *BaseHandler) RespondServiceError(w http.ResponseWriter, err error, message string) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		h.Logger.Error(message, zap.Error(err))
		h.RespondError(w, status, message)
		return
	}
	h.Logger.Debug(message, zap.Error(err), zap.Int("status", status))

	var curriculumErr *curriculum.ValidationError
	if errors.As(err, &curriculumErr) {
		h.RespondJSON(w, status, map[string]any{
			"error":      "invalid curriculum",
			"violations": curriculumErr.Violations,
		})
		return
	}
	var fieldErr *services.ValidationError
	if errors.As(err, &fieldErr) {
		h.RespondJSON(w, status, map[string]string{
			"error": fieldErr.Message,
			"field": fieldErr.Field,
		})
		return
	}
	h.RespondError(w, status, err.Error())
}

// errorStatus maps a service error to an HTTP status code
func errorStatus(err error) int {
	var curriculumErr *curriculum.ValidationError
	var fieldErr *services.ValidationError
	switch {
	case errors.As(err, &curriculumErr), errors.As(err, &fieldErr):
		return http.StatusBadRequest
	case errors.Is(err, curriculum.ErrSectionNotFound),
		errors.Is(err, curriculum.ErrLessonNotFound),
		errors.Is(err, curriculum.ErrQuestionNotFound),
		errors.Is(err, curriculum.ErrOptionNotFound):
		return http.StatusNotFound
	case errors.Is(err, curriculum.ErrUnknownAction),
		errors.Is(err, curriculum.ErrInvalidOrder),
		errors.Is(err, curriculum.ErrInvalidLessonType):
		return http.StatusBadRequest
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "failed to"):
		return http.StatusInternalServerError
	case strings.Contains(msg, "not found"):
		return http.StatusNotFound
	case strings.Contains(msg, "do not have rights"):
		return http.StatusForbidden
	case strings.Contains(msg, "already"),
		strings.Contains(msg, "was changed while saving"),
		strings.Contains(msg, "modified concurrently"):
		return http.StatusConflict
	case strings.Contains(msg, "required"),
		strings.Contains(msg, "invalid"),
		strings.Contains(msg, "must"),
		strings.Contains(msg, "not supported"):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// getUserID extracts the authenticated user ID from context
func (h *BaseHandler) getUserID(r *http.Request) (int, error) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// getTutorScope returns the tutor ID used for ownership checks.
//
// Admins manage every course, so their scope is nil.
func (h *BaseHandler) getTutorScope(r *http.Request) (*int, error) {
	userID, err := h.getUserID(r)
	if err != nil {
		return nil, err
	}
	if role, ok := middleware.GetRole(r.Context()); ok && role >= auth.RoleAdmin {
		return nil, nil
	}
	return &userID, nil
}

// pathID parses a positive integer URL parameter
func pathID(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// pagination reads the page and count query parameters, falling back to page 1 of 20 items
func pagination(r *http.Request) (int, int) {
	page := 1
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	count := 20
	if c, err := strconv.Atoi(r.URL.Query().Get("count")); err == nil && c > 0 {
		count = c
	}
	return page, count
}
