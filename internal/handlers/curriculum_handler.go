package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/coursehub/backend/internal/curriculum"
	"github.com/coursehub/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CurriculumService is the interface that wraps methods for curriculum editing
type CurriculumService interface {
	// OpenDraft returns the editing draft of a course, starting one from the saved curriculum if none exists
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	// "tutorID" is the ID of the tutor (nil if the course is managed by an admin).
	//
	// Returns the draft and an error if any.
	OpenDraft(ctx context.Context, courseID int, tutorID *int) (*models.CurriculumDraft, error)
	// ApplyAction dispatches a raw curriculum action against the draft
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	// "tutorID" is the ID of the tutor (nil if the course is managed by an admin).
	// "action" is the decoded action.
	//
	// Returns the updated draft with the notices of the change and an error if any.
	ApplyAction(ctx context.Context, courseID int, tutorID *int, action curriculum.Action) (*models.DraftResponse, error)
	// AddSection appends a section to the draft
	AddSection(ctx context.Context, courseID int, tutorID *int, req *models.SectionRequest) (*models.DraftResponse, error)
	// UpdateSection renames a section of the draft
	UpdateSection(ctx context.Context, courseID int, tutorID *int, sectionRef string, req *models.SectionRequest) (*models.DraftResponse, error)
	// DeleteSection removes a section and its lessons from the draft
	DeleteSection(ctx context.Context, courseID int, tutorID *int, sectionRef string) (*models.DraftResponse, error)
	// ReorderSections reorders the sections of the draft
	ReorderSections(ctx context.Context, courseID int, tutorID *int, order []string) (*models.DraftResponse, error)
	// AddLesson appends a lesson to a section of the draft
	AddLesson(ctx context.Context, courseID int, tutorID *int, sectionRef string, lesson models.Lesson) (*models.DraftResponse, error)
	// UpdateLesson replaces the content of a lesson of the draft
	UpdateLesson(ctx context.Context, courseID int, tutorID *int, sectionRef, lessonRef string, lesson models.Lesson) (*models.DraftResponse, error)
	// DeleteLesson removes a lesson from a section of the draft
	DeleteLesson(ctx context.Context, courseID int, tutorID *int, sectionRef, lessonRef string) (*models.DraftResponse, error)
	// ReorderLessons reorders the lessons of a section of the draft
	ReorderLessons(ctx context.Context, courseID int, tutorID *int, sectionRef string, order []string) (*models.DraftResponse, error)
	// SetCorrectOption marks the only correct option of a quiz question of the draft
	SetCorrectOption(ctx context.Context, courseID int, tutorID *int, sectionRef, lessonRef, questionRef, optionRef string) (*models.DraftResponse, error)
	// SaveDraft validates the draft and writes it to the database
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	// "tutorID" is the ID of the tutor (nil if the course is managed by an admin).
	//
	// Returns the draft holding the saved curriculum and an error if any.
	SaveDraft(ctx context.Context, courseID int, tutorID *int) (*models.CurriculumDraft, error)
	// DiscardDraft drops the draft of a course
	DiscardDraft(ctx context.Context, courseID int, tutorID *int) error
	// GetPublishedCurriculum returns the saved curriculum of a published course
	GetPublishedCurriculum(ctx context.Context, courseID int) ([]models.Section, error)
}

// CurriculumHandler handles HTTP requests for curriculum drafts
type CurriculumHandler struct {
	BaseHandler
	service CurriculumService
}

// NewCurriculumHandler creates a new curriculum handler
func NewCurriculumHandler(svc CurriculumService, logger *zap.Logger) *CurriculumHandler {
	return &CurriculumHandler{
		service:     svc,
		BaseHandler: BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers the draft editing routes
func (h *CurriculumHandler) RegisterRoutes(r chi.Router) {
	r.Route("/instructor/courses/{id}/curriculum/draft", func(r chi.Router) {
		r.Get("/", h.OpenDraft)
		r.Delete("/", h.DiscardDraft)
		r.Post("/save", h.SaveDraft)
		r.Post("/actions", h.ApplyAction)
		r.Route("/sections", func(r chi.Router) {
			r.Post("/", h.AddSection)
			r.Put("/order", h.ReorderSections)
			r.Patch("/{sectionRef}", h.UpdateSection)
			r.Delete("/{sectionRef}", h.DeleteSection)
			r.Route("/{sectionRef}/lessons", func(r chi.Router) {
				r.Post("/", h.AddLesson)
				r.Put("/order", h.ReorderLessons)
				r.Patch("/{lessonRef}", h.UpdateLesson)
				r.Delete("/{lessonRef}", h.DeleteLesson)
				r.Put("/{lessonRef}/questions/{questionRef}/correct", h.SetCorrectOption)
			})
		})
	})
}

// RegisterPublicRoutes registers the read-only curriculum routes available to every authenticated user
func (h *CurriculumHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/courses/{id}/curriculum", h.GetPublishedCurriculum)
}

// draftTarget resolves the course ID and tutor scope shared by every draft route
func (h *CurriculumHandler) draftTarget(w http.ResponseWriter, r *http.Request) (int, *int, bool) {
	tutorID, err := h.getTutorScope(r)
	if err != nil {
		h.RespondError(w, http.StatusUnauthorized, err.Error())
		return 0, nil, false
	}
	courseID, err := pathID(r, "id")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid course ID")
		return 0, nil, false
	}
	return courseID, tutorID, true
}

func (h *CurriculumHandler) respondDraft(w http.ResponseWriter, resp *models.DraftResponse, err error, message string) {
	if err != nil {
		h.RespondServiceError(w, err, message)
		return
	}
	h.RespondJSON(w, http.StatusOK, resp)
}

// OpenDraft handles GET /instructor/courses/{id}/curriculum/draft
// @Summary Open curriculum draft
// @Description Get the editing draft of a course, starting one from the saved curriculum if none exists
// @Tags curriculum
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} models.CurriculumDraft
// @Failure 400 {object} map[string]string "Invalid course ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden - not course owner"
// @Failure 404 {object} map[string]string "Course not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /instructor/courses/{id}/curriculum/draft [get]
func (h *CurriculumHandler) OpenDraft(w http.ResponseWriter, r *http.Request) {
	courseID, tutorID, ok := h.draftTarget(w, r)
	if !ok {
		return
	}

	draft, err := h.service.OpenDraft(r.Context(), courseID, tutorID)
	if err != nil {
		h.RespondServiceError(w, err, "failed to open draft")
		return
	}

	h.RespondJSON(w, http.StatusOK, draft)
}

// DiscardDraft handles DELETE /instructor/courses/{id}/curriculum/draft
// @Summary Discard curriculum draft
// @Description Drop the editing draft of a course; the saved curriculum is not affected
// @Tags curriculum
// @Param id path int true "Course ID"
// @Success 204 "No Content"
// @Failure 403 {object} map[string]string "Forbidden - not course owner"
// @Failure 404 {object} map[string]string "Course not found"
// @Router /instructor/courses/{id}/curriculum/draft [delete]
func (h *CurriculumHandler) DiscardDraft(w http.ResponseWriter, r *http.Request) {
	courseID, tutorID, ok := h.draftTarget(w, r)
	if !ok {
		return
	}

	if err := h.service.DiscardDraft(r.Context(), courseID, tutorID); err != nil {
		h.RespondServiceError(w, err, "failed to discard draft")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SaveDraft handles POST /instructor/courses/{id}/curriculum/draft/save
// @Summary Save curriculum draft
// @Description Validate the draft and write it to the database
// @Tags curriculum
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} models.CurriculumDraft
// @Failure 400 {object} map[string]any "Invalid curriculum with the list of violations"
// @Failure 404 {object} map[string]string "Course or draft not found"
// @Failure 409 {object} map[string]string "Course pending review or draft changed while saving"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /instructor/courses/{id}/curriculum/draft/save [post]
func (h *CurriculumHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	courseID, tutorID, ok := h.draftTarget(w, r)
	if !ok {
		return
	}

	draft, err := h.service.SaveDraft(r.Context(), courseID, tutorID)
	if err != nil {
		h.RespondServiceError(w, err, "failed to save draft")
		return
	}

	h.RespondJSON(w, http.StatusOK, draft)
}

// ApplyAction handles POST /instructor/courses/{id}/curriculum/draft/actions
// @Summary Apply curriculum action
// @Description Apply a raw curriculum action (ADD_SECTION, UPDATE_LESSON, REORDER_SECTIONS, ...) to the draft
// @Tags curriculum
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param request body models.ActionRequest true "Action"
// @Success 200 {object} models.DraftResponse
// @Failure 400 {object} map[string]string "Invalid or unknown action"
// @Failure 404 {object} map[string]string "Target not found"
// @Router /instructor/courses/{id}/curriculum/draft/actions [post]
func (h *CurriculumHandler) ApplyAction(w http.ResponseWriter, r *http.Request) {
	courseID, tutorID, ok := h.draftTarget(w, r)
	if !ok {
		return
	}

	var req models.ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	action, err := curriculum.DecodeAction(req.Type, req.Payload)
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.ApplyAction(r.Context(), courseID, tutorID, action)
	h.respondDraft(w, resp, err, "failed to apply curriculum action")
}

// AddSection handles POST /instructor/courses/{id}/curriculum/draft/sections
// @Summary Add section
// @Tags curriculum
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param request body models.SectionRequest true "Section"
// @Success 200 {object} models.DraftResponse
// @Failure 400 {object} map[string]string "Invalid request body"
// @Router /instructor/courses/{id}/curriculum/draft/sections [post]
func (h *CurriculumHandler) AddSection(w http.ResponseWriter, r *http.Request) {
	courseID, tutorID, ok := h.draftTarget(w, r)
	if !ok {
		return
	}

	var req models.SectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.service.AddSection(r.Context(), courseID, tutorID, &req)
	h.respondDraft(w, resp, err, "failed to add section")
}

// UpdateSection handles PATCH /instructor/courses/{id}/curriculum/draft/sections/{sectionRef}
// @Summary Update section
// @Tags curriculum
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param sectionRef path string true "Section ID or temporary ID"
// @Param request body models.SectionRequest true "Section"
// @Success 200 {object} models.DraftResponse
// @Failure 404 {object} map[string]string "Section not found"
// @Router /instructor/courses/{id}/curriculum/draft/sections/{sectionRef} [patch]
func (h *CurriculumHandler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	courseID, tutorID, ok := h.draftTarget(w, r)
	if !ok {
		return
	}

	var req models.SectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.service.UpdateSection(r.Context(), courseID, tutorID, chi.URLParam(r, "sectionRef"), &req)
	h.respondDraft(w, resp, err, "failed to update section")
}

// DeleteSection handles DELETE /instructor/courses/{id}/curriculum/draft/sections/{sectionRef}
// @Summary Delete section
// @Tags curriculum
// @Produce json
// @Param id path int true "Course ID"
// @Param sectionRef path string true "Section ID or temporary ID"
// @Success 200 {object} models.DraftResponse
// @Failure 404 {object} map[string]string "Section not found"
// @Router /instructor/courses/{id}/curriculum/draft/sections/{sectionRef} [delete]
func (h *CurriculumHandler) DeleteSection(w http.ResponseWriter, r *http.Request) {
	courseID, tutorID, ok := h.draftTarget(w, r)
	if !ok {
		return
	}

	resp, err := h.service.DeleteSection(r.Context(), courseID, tutorID, chi.URLParam(r, "sectionRef"))
	h.respondDraft(w, resp, err, "failed to delete section")
}

// ReorderSections handles PUT /instructor/courses/{id}/curriculum/draft/sections/order
// @Summary Reorder sections
// @Tags curriculum
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param request body models.ReorderRequest true "New order of every section"
// @Success 200 {object} models.DraftResponse
// @Failure 400 {object} map[string]string "Order does not list every section exactly once"
// @Router /instructor/courses/{id}/curriculum/draft/sections/order [put]
func (h *CurriculumHandler) ReorderSections(w http.ResponseWriter, r *http.Request) {
	courseID, tutorID, ok := h.draftTarget(w, r)
	if !ok {
		return
	}

	var req models.ReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.service.ReorderSections(r.Context(), courseID, tutorID, req.Order)
	h.respondDraft(w, resp, err, "failed to reorder sections")
}

// AddLesson handles POST /instructor/courses/{id}/curriculum/draft/sections/{sectionRef}/lessons
// @Summary Add lesson
// @Tags curriculum
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param sectionRef path string true "Section ID or temporary ID"
// @Param request body models.Lesson true "Lesson"
// @Success 200 {object} models.DraftResponse
// @Failure 400 {object} map[string]string "Invalid lesson"
// @Failure 404 {object} map[string]string "Section not found"
// @Router /instructor/courses/{id}/curriculum/draft/sections/{sectionRef}/lessons [post]
func (h *CurriculumHandler) AddLesson(w http.ResponseWriter, r *http.Request) {
	courseID, tutorID, ok := h.draftTarget(w, r)
	if !ok {
		return
	}

	var lesson models.Lesson
	if err := json.NewDecoder(r.Body).Decode(&lesson); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.service.AddLesson(r.Context(), courseID, tutorID, chi.URLParam(r, "sectionRef"), lesson)
	h.respondDraft(w, resp, err, "failed to add lesson")
}

// UpdateLesson handles PATCH /instructor/courses/{id}/curriculum/draft/sections/{sectionRef}/lessons/{lessonRef}
// @Summary Update lesson
// @Description Replace the content of a lesson; its identifiers and position are kept
// @Tags curriculum
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param sectionRef path string true "Section ID or temporary ID"
// @Param lessonRef path string true "Lesson ID or temporary ID"
// @Param request body models.Lesson true "Lesson"
// @Success 200 {object} models.DraftResponse
// @Failure 404 {object} map[string]string "Section or lesson not found"
// @Router /instructor/courses/{id}/curriculum/draft/sections/{sectionRef}/lessons/{lessonRef} [patch]
func (h *CurriculumHandler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	courseID, tutorID, ok := h.draftTarget(w, r)
	if !ok {
		return
	}

	var lesson models.Lesson
	if err := json.NewDecoder(r.Body).Decode(&lesson); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.service.UpdateLesson(r.Context(), courseID, tutorID,
		chi.URLParam(r, "sectionRef"), chi.URLParam(r, "lessonRef"), lesson)
	h.respondDraft(w, resp, err, "failed to update lesson")
}

// DeleteLesson handles DELETE /instructor/courses/{id}/curriculum/draft/sections/{sectionRef}/lessons/{lessonRef}
// @Summary Delete lesson
// @Tags curriculum
// @Produce json
// @Param id path int true "Course ID"
// @Param sectionRef path string true "Section ID or temporary ID"
// @Param lessonRef path string true "Lesson ID or temporary ID"
// @Success 200 {object} models.DraftResponse
// @Failure 404 {object} map[string]string "Section or lesson not found"
// @Router /instructor/courses/{id}/curriculum/draft/sections/{sectionRef}/lessons/{lessonRef} [delete]
func (h *CurriculumHandler) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	courseID, tutorID, ok := h.draftTarget(w, r)
	if !ok {
		return
	}

	resp, err := h.service.DeleteLesson(r.Context(), courseID, tutorID,
		chi.URLParam(r, "sectionRef"), chi.URLParam(r, "lessonRef"))
	h.respondDraft(w, resp, err, "failed to delete lesson")
}

// ReorderLessons handles PUT /instructor/courses/{id}/curriculum/draft/sections/{sectionRef}/lessons/order
// @Summary Reorder lessons
// @Tags curriculum
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param sectionRef path string true "Section ID or temporary ID"
// @Param request body models.ReorderRequest true "New order of every lesson of the section"
// @Success 200 {object} models.DraftResponse
// @Failure 400 {object} map[string]string "Order does not list every lesson exactly once"
// @Router /instructor/courses/{id}/curriculum/draft/sections/{sectionRef}/lessons/order [put]
func (h *CurriculumHandler) ReorderLessons(w http.ResponseWriter, r *http.Request) {
	courseID, tutorID, ok := h.draftTarget(w, r)
	if !ok {
		return
	}

	var req models.ReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.service.ReorderLessons(r.Context(), courseID, tutorID, chi.URLParam(r, "sectionRef"), req.Order)
	h.respondDraft(w, resp, err, "failed to reorder lessons")
}

// SetCorrectOption handles PUT .../lessons/{lessonRef}/questions/{questionRef}/correct
// @Summary Set correct quiz option
// @Description Mark one option of a quiz question as its only correct answer
// @Tags curriculum
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param sectionRef path string true "Section ID or temporary ID"
// @Param lessonRef path string true "Lesson ID or temporary ID"
// @Param questionRef path string true "Question ID or temporary ID"
// @Param request body models.CorrectOptionRequest true "Option reference"
// @Success 200 {object} models.DraftResponse
// @Failure 404 {object} map[string]string "Question or option not found"
// @Router /instructor/courses/{id}/curriculum/draft/sections/{sectionRef}/lessons/{lessonRef}/questions/{questionRef}/correct [put]
func (h *CurriculumHandler) SetCorrectOption(w http.ResponseWriter, r *http.Request) {
	courseID, tutorID, ok := h.draftTarget(w, r)
	if !ok {
		return
	}

	var req models.CorrectOptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.service.SetCorrectOption(r.Context(), courseID, tutorID,
		chi.URLParam(r, "sectionRef"), chi.URLParam(r, "lessonRef"), chi.URLParam(r, "questionRef"), req.OptionRef)
	h.respondDraft(w, resp, err, "failed to set correct option")
}

// GetPublishedCurriculum handles GET /courses/{id}/curriculum
// @Summary Get published curriculum
// @Description Get the saved curriculum of a published course
// @Tags curriculum
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {array} models.Section
// @Failure 400 {object} map[string]string "Invalid course ID"
// @Failure 404 {object} map[string]string "Course not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /courses/{id}/curriculum [get]
func (h *CurriculumHandler) GetPublishedCurriculum(w http.ResponseWriter, r *http.Request) {
	courseID, err := pathID(r, "id")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid course ID")
		return
	}

	sections, err := h.service.GetPublishedCurriculum(r.Context(), courseID)
	if err != nil {
		h.RespondServiceError(w, err, "failed to get curriculum")
		return
	}

	h.RespondJSON(w, http.StatusOK, sections)
}
