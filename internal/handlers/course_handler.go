package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/coursehub/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CourseService is the interface that wraps methods for instructor course management
type CourseService interface {
	// GetCourses retrieves a paginated list of courses
	//
	// "ctx" is the context for the request.
	// "tutorID" is the ID of the tutor (nil lists the courses of every author).
	// "status" is the status filter (empty for any status).
	// "search" is the search query for course titles.
	// "page" is the page number to retrieve.
	// "count" is the number of items per page.
	//
	// Returns a list of courses and an error if any.
	GetCourses(ctx context.Context, tutorID *int, status string, search string, page, count int) ([]models.CourseListItem, error)
	// GetCourse retrieves a course the tutor may manage
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	// "tutorID" is the ID of the tutor (nil if the course is managed by an admin).
	//
	// Returns the course and an error if any.
	GetCourse(ctx context.Context, courseID int, tutorID *int) (*models.Course, error)
	// CreateCourse creates a new course
	//
	// "ctx" is the context for the request.
	// "req" is the request to create a course.
	//
	// Returns the ID of the created course and an error if any.
	CreateCourse(ctx context.Context, req *models.CreateCourseRequest) (int, error)
	// UpdateCourse partially updates a course
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	// "tutorID" is the ID of the tutor (nil if the course is managed by an admin).
	// "req" is the request to update a course.
	//
	// Returns an error if any.
	UpdateCourse(ctx context.Context, courseID int, tutorID *int, req *models.UpdateCourseRequest) error
	// DeleteCourse deletes a course
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	// "tutorID" is the ID of the tutor (nil if the course is managed by an admin).
	//
	// Returns an error if any.
	DeleteCourse(ctx context.Context, courseID int, tutorID *int) error
	// SubmitForReview sends the saved curriculum of a course to the admins for approval
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	// "tutorID" is the ID of the tutor (nil if the course is managed by an admin).
	//
	// Returns the created approval request and an error if any.
	SubmitForReview(ctx context.Context, courseID int, tutorID *int) (*models.ApprovalRequest, error)
}

// CourseHandler handles HTTP requests for instructor courses
type CourseHandler struct {
	BaseHandler
	service CourseService
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(svc CourseService, logger *zap.Logger) *CourseHandler {
	return &CourseHandler{
		service:     svc,
		BaseHandler: BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers all course handler routes
func (h *CourseHandler) RegisterRoutes(r chi.Router) {
	r.Get("/instructor/courses", h.GetCourses)
	r.Post("/instructor/courses", h.CreateCourse)
	r.Get("/instructor/courses/{id}", h.GetCourse)
	r.Patch("/instructor/courses/{id}", h.UpdateCourse)
	r.Delete("/instructor/courses/{id}", h.DeleteCourse)
	r.Post("/instructor/courses/{id}/submit", h.SubmitForReview)
}

// GetCourses handles GET /instructor/courses
// @Summary Get list of courses
// @Description Get paginated list of courses of the authenticated instructor (every course for admins)
// @Tags instructor
// @Produce json
// @Param status query string false "Course status (DRAFT, PENDING_REVIEW, PUBLISHED, REJECTED)"
// @Param search query string false "Search query"
// @Param page query int false "Page number (default: 1)"
// @Param count query int false "Items per page (default: 20)"
// @Success 200 {array} models.CourseListItem "List of courses"
// @Failure 400 {object} map[string]string "Invalid status"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /instructor/courses [get]
func (h *CourseHandler) GetCourses(w http.ResponseWriter, r *http.Request) {
	tutorID, err := h.getTutorScope(r)
	if err != nil {
		h.RespondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	page, count := pagination(r)
	courses, err := h.service.GetCourses(r.Context(), tutorID, r.URL.Query().Get("status"), r.URL.Query().Get("search"), page, count)
	if err != nil {
		h.RespondServiceError(w, err, "failed to get courses")
		return
	}

	h.RespondJSON(w, http.StatusOK, courses)
}

// GetCourse handles GET /instructor/courses/{id}
// @Summary Get a course
// @Tags instructor
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} models.Course
// @Failure 403 {object} map[string]string "Forbidden - not course owner"
// @Failure 404 {object} map[string]string "Course not found"
// @Router /instructor/courses/{id} [get]
func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	tutorID, err := h.getTutorScope(r)
	if err != nil {
		h.RespondError(w, http.StatusUnauthorized, err.Error())
		return
	}
	courseID, err := pathID(r, "id")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid course ID")
		return
	}

	course, err := h.service.GetCourse(r.Context(), courseID, tutorID)
	if err != nil {
		h.RespondServiceError(w, err, "failed to get course")
		return
	}

	h.RespondJSON(w, http.StatusOK, course)
}

// CreateCourse handles POST /instructor/courses
// @Summary Create a course
// @Description Create a new course for the authenticated instructor; the slug is generated from the title when omitted
// @Tags instructor
// @Accept json
// @Produce json
// @Param request body models.CreateCourseRequest true "Course creation request"
// @Success 201 {object} map[string]any "Course created successfully"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Slug or title already used"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /instructor/courses [post]
func (h *CourseHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	userID, err := h.getUserID(r)
	if err != nil {
		h.RespondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req models.CreateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.AuthorID = userID
	courseID, err := h.service.CreateCourse(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, err, "failed to create course")
		return
	}

	h.RespondJSON(w, http.StatusCreated, map[string]any{
		"id":      courseID,
		"message": "course created successfully",
	})
}

// UpdateCourse handles PATCH /instructor/courses/{id}
// @Summary Update a course
// @Description Update a course owned by the authenticated instructor (partial update)
// @Tags instructor
// @Accept json
// @Param id path int true "Course ID"
// @Param request body models.UpdateCourseRequest true "Course update request"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 403 {object} map[string]string "Forbidden - not course owner"
// @Failure 404 {object} map[string]string "Course not found"
// @Failure 409 {object} map[string]string "Course pending review or slug already used"
// @Router /instructor/courses/{id} [patch]
func (h *CourseHandler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	tutorID, err := h.getTutorScope(r)
	if err != nil {
		h.RespondError(w, http.StatusUnauthorized, err.Error())
		return
	}
	courseID, err := pathID(r, "id")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid course ID")
		return
	}

	var req models.UpdateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.UpdateCourse(r.Context(), courseID, tutorID, &req); err != nil {
		h.RespondServiceError(w, err, "failed to update course")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteCourse handles DELETE /instructor/courses/{id}
// @Summary Delete a course
// @Description Delete a course with its curriculum
// @Tags instructor
// @Param id path int true "Course ID"
// @Success 204 "No Content"
// @Failure 403 {object} map[string]string "Forbidden - not course owner"
// @Failure 404 {object} map[string]string "Course not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /instructor/courses/{id} [delete]
func (h *CourseHandler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	tutorID, err := h.getTutorScope(r)
	if err != nil {
		h.RespondError(w, http.StatusUnauthorized, err.Error())
		return
	}
	courseID, err := pathID(r, "id")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid course ID")
		return
	}

	if err := h.service.DeleteCourse(r.Context(), courseID, tutorID); err != nil {
		h.RespondServiceError(w, err, "failed to delete course")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SubmitForReview handles POST /instructor/courses/{id}/submit
// @Summary Submit a course for review
// @Description Send the saved curriculum of a course to the admins for approval
// @Tags instructor
// @Produce json
// @Param id path int true "Course ID"
// @Success 201 {object} models.ApprovalRequest
// @Failure 400 {object} map[string]string "Curriculum is empty"
// @Failure 403 {object} map[string]string "Forbidden - not course owner"
// @Failure 409 {object} map[string]string "Course is already pending review"
// @Router /instructor/courses/{id}/submit [post]
func (h *CourseHandler) SubmitForReview(w http.ResponseWriter, r *http.Request) {
	tutorID, err := h.getTutorScope(r)
	if err != nil {
		h.RespondError(w, http.StatusUnauthorized, err.Error())
		return
	}
	courseID, err := pathID(r, "id")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid course ID")
		return
	}

	req, err := h.service.SubmitForReview(r.Context(), courseID, tutorID)
	if err != nil {
		h.RespondServiceError(w, err, "failed to submit course for review")
		return
	}

	h.RespondJSON(w, http.StatusCreated, req)
}
