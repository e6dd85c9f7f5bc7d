package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/coursehub/backend/internal/auth"
	"github.com/coursehub/backend/internal/curriculum"
	"github.com/coursehub/backend/internal/middleware"
	"github.com/coursehub/backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "curriculum validation error",
			err:  &curriculum.ValidationError{Violations: []curriculum.Violation{{Path: "sections[0]", Message: "section name is required"}}},
			want: http.StatusBadRequest,
		},
		{
			name: "field validation error",
			err:  &services.ValidationError{Field: "code", Message: "currency code is required"},
			want: http.StatusBadRequest,
		},
		{
			name: "wrapped lesson not found",
			err:  fmt.Errorf("update lesson: %w", curriculum.ErrLessonNotFound),
			want: http.StatusNotFound,
		},
		{
			name: "invalid order",
			err:  curriculum.ErrInvalidOrder,
			want: http.StatusBadRequest,
		},
		{
			name: "unknown action",
			err:  fmt.Errorf("%w: %q", curriculum.ErrUnknownAction, "RENAME"),
			want: http.StatusBadRequest,
		},
		{
			name: "repository failure",
			err:  errors.New("failed to get course: connection refused"),
			want: http.StatusInternalServerError,
		},
		{
			name: "course not found",
			err:  errors.New("course not found"),
			want: http.StatusNotFound,
		},
		{
			name: "not owner",
			err:  errors.New("you do not have rights to manage this course"),
			want: http.StatusForbidden,
		},
		{
			name: "already pending",
			err:  errors.New("course is already pending review"),
			want: http.StatusConflict,
		},
		{
			name: "draft changed while saving",
			err:  errors.New("draft was changed while saving, please save again"),
			want: http.StatusConflict,
		},
		{
			name: "draft modified concurrently",
			err:  errors.New("draft was modified concurrently, please retry"),
			want: http.StatusConflict,
		},
		{
			name: "required field",
			err:  errors.New("admin notes are required when rejecting"),
			want: http.StatusBadRequest,
		},
		{
			name: "unexpected error",
			err:  errors.New("boom"),
			want: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorStatus(tt.err))
		})
	}
}

func TestBaseHandler_RespondServiceError(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	h := &BaseHandler{Logger: logger}

	t.Run("internal error is hidden", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.RespondServiceError(w, errors.New("failed to query: dial tcp 10.0.0.1:3306"), "failed to get courses")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "failed to get courses", body["error"])
	})

	t.Run("curriculum violations are listed", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.RespondServiceError(w, &curriculum.ValidationError{Violations: []curriculum.Violation{
			{Path: "sections[0].lessons[0]", Message: "text content is required"},
		}}, "failed to save draft")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var body struct {
			Error      string                 `json:"error"`
			Violations []curriculum.Violation `json:"violations"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "invalid curriculum", body.Error)
		require.Len(t, body.Violations, 1)
		assert.Equal(t, "sections[0].lessons[0]", body.Violations[0].Path)
	})

	t.Run("field error carries the field", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.RespondServiceError(w, &services.ValidationError{Field: "rate", Message: "rate must be a positive number"}, "failed to set exchange rate")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "rate", body["field"])
		assert.Equal(t, "rate must be a positive number", body["error"])
	})

	t.Run("client error keeps its message", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.RespondServiceError(w, errors.New("course not found"), "failed to get course")

		assert.Equal(t, http.StatusNotFound, w.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "course not found", body["error"])
	})
}

func TestBaseHandler_GetTutorScope(t *testing.T) {
	h := &BaseHandler{}

	tests := []struct {
		name    string
		userID  int
		role    int
		want    *int
		wantErr bool
	}{
		{name: "instructor is scoped to own courses", userID: 7, role: auth.RoleInstructor, want: func() *int { v := 7; return &v }()},
		{name: "admin is not scoped", userID: 1, role: auth.RoleAdmin, want: nil},
		{name: "anonymous", userID: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.userID != 0 {
				r = r.WithContext(middleware.WithUser(r.Context(), tt.userID, tt.role))
			}

			got, err := h.getTutorScope(r)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPagination(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantPage  int
		wantCount int
	}{
		{name: "defaults", query: "", wantPage: 1, wantCount: 20},
		{name: "explicit", query: "?page=3&count=50", wantPage: 3, wantCount: 50},
		{name: "invalid values fall back", query: "?page=-1&count=abc", wantPage: 1, wantCount: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, count := pagination(httptest.NewRequest(http.MethodGet, "/"+tt.query, nil))
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantCount, count)
		})
	}
}
