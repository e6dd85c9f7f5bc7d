package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coursehub/backend/internal/curriculum"
	"github.com/coursehub/backend/internal/models"
	"go.uber.org/zap"
)

// CurriculumCourseRepository defines the course data access needed by the curriculum editor
type CurriculumCourseRepository interface {
	// GetByID retrieves a course by ID
	//
	// "ctx" is the context for the request.
	// "id" is the ID of the course.
	//
	// Returns the course and an error if any.
	GetByID(ctx context.Context, id int) (*models.Course, error)
	// UpdateStatus sets the publication status of a course
	//
	// "ctx" is the context for the request.
	// "id" is the ID of the course.
	// "status" is the new status.
	//
	// Returns an error if any.
	UpdateStatus(ctx context.Context, id int, status models.CourseStatus) error
}

// CurriculumTreeRepository defines methods for saved curriculum data access
type CurriculumTreeRepository interface {
	// GetTree loads the saved curriculum of a course
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	//
	// Returns the ordered list of sections (with their lessons and nested entities) and an error if any.
	// Temporary identifiers of the returned entities are empty.
	GetTree(ctx context.Context, courseID int) ([]models.Section, error)
	// SaveTree replaces the saved curriculum of a course with the given tree
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	// "sections" is the curriculum to save.
	//
	// Returns the saved tree, in which every entity carries its persisted ID, and an error if any.
	// Temporary identifiers of the given tree are kept.
	SaveTree(ctx context.Context, courseID int, sections []models.Section) ([]models.Section, error)
}

// DraftStore defines methods for curriculum draft storage
type DraftStore interface {
	// Get retrieves the draft of a course
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	//
	// Returns the draft and an error if any. A missing draft is reported as "draft not found".
	Get(ctx context.Context, courseID int) (*models.CurriculumDraft, error)
	// Save stores a draft, replacing any previous one
	//
	// "ctx" is the context for the request.
	// "draft" is the draft to store.
	//
	// Returns an error if any.
	Save(ctx context.Context, draft *models.CurriculumDraft) error
	// SaveIfAbsent stores a draft unless the course already has one
	//
	// "ctx" is the context for the request.
	// "draft" is the draft to store.
	//
	// Returns true if the draft was stored and an error if any.
	SaveIfAbsent(ctx context.Context, draft *models.CurriculumDraft) (bool, error)
	// Delete removes the draft of a course
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	//
	// Returns an error if any.
	Delete(ctx context.Context, courseID int) error
	// Update applies "fn" to the stored draft atomically and increments its version
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	// "fn" modifies the draft in place; an error returned by it cancels the update.
	//
	// Returns the updated draft and an error if any.
	Update(ctx context.Context, courseID int, fn func(*models.CurriculumDraft) error) (*models.CurriculumDraft, error)
}

type curriculumService struct {
	courseRepo CurriculumCourseRepository
	treeRepo   CurriculumTreeRepository
	drafts     DraftStore
	gen        curriculum.IDGenerator
	logger     *zap.Logger
}

// NewCurriculumService creates a new curriculum service
//
// "gen" produces temporary identifiers for new entities; nil means random UUID based identifiers.
func NewCurriculumService(courseRepo CurriculumCourseRepository, treeRepo CurriculumTreeRepository, drafts DraftStore, gen curriculum.IDGenerator, logger *zap.Logger) *curriculumService {
	if gen == nil {
		gen = curriculum.UUIDGenerator{}
	}
	return &curriculumService{
		courseRepo: courseRepo,
		treeRepo:   treeRepo,
		drafts:     drafts,
		gen:        gen,
		logger:     logger,
	}
}

// checkCourseAccess retrieves a course and verifies that the tutor may edit it
//
// A nil tutorID means the request comes from an admin.
func (s *curriculumService) checkCourseAccess(ctx context.Context, courseID int, tutorID *int) (*models.Course, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("course not found")
		}
		return nil, err
	}
	if tutorID != nil && course.AuthorID != *tutorID {
		return nil, fmt.Errorf("you do not have rights to manage this course")
	}
	return course, nil
}

// OpenDraft returns the editing draft of a course, starting one from the saved curriculum if none exists
func (s *curriculumService) OpenDraft(ctx context.Context, courseID int, tutorID *int) (*models.CurriculumDraft, error) {
	if _, err := s.checkCourseAccess(ctx, courseID, tutorID); err != nil {
		return nil, err
	}
	return s.openDraft(ctx, courseID)
}

func (s *curriculumService) openDraft(ctx context.Context, courseID int) (*models.CurriculumDraft, error) {
	draft, err := s.drafts.Get(ctx, courseID)
	if err == nil {
		return draft, nil
	}
	if !strings.Contains(err.Error(), "not found") {
		return nil, err
	}

	tree, err := s.treeRepo.GetTree(ctx, courseID)
	if err != nil {
		s.logger.Error("failed to load curriculum", zap.Error(err), zap.Int("courseID", courseID))
		return nil, fmt.Errorf("failed to load curriculum: %w", err)
	}

	editor := curriculum.NewEditor(nil, s.gen, nil)
	if err := editor.SetCurriculum(tree); err != nil {
		return nil, err
	}
	draft = &models.CurriculumDraft{
		CourseID:  courseID,
		Version:   1,
		Sections:  editor.Sections(),
		UpdatedAt: time.Now().UTC(),
	}
	created, err := s.drafts.SaveIfAbsent(ctx, draft)
	if err != nil {
		return nil, err
	}
	if !created {
		// another request opened the draft first
		return s.drafts.Get(ctx, courseID)
	}
	return draft, nil
}

// edit opens the draft of a course and runs fn against an editor holding it.
//
// The resulting curriculum is stored only when fn succeeds. Notices emitted by the editor are
// returned together with the stored draft.
func (s *curriculumService) edit(ctx context.Context, courseID int, tutorID *int, fn func(*curriculum.Editor) error) (*models.DraftResponse, error) {
	if _, err := s.checkCourseAccess(ctx, courseID, tutorID); err != nil {
		return nil, err
	}
	if _, err := s.openDraft(ctx, courseID); err != nil {
		return nil, err
	}

	var collector *curriculum.NoticeCollector
	draft, err := s.drafts.Update(ctx, courseID, func(d *models.CurriculumDraft) error {
		collector = &curriculum.NoticeCollector{}
		editor := curriculum.NewEditor(d.Sections, s.gen, collector)
		if err := fn(editor); err != nil {
			return err
		}
		d.Sections = editor.Sections()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &models.DraftResponse{Draft: draft, Notices: collector.Notices()}, nil
}

// ApplyAction dispatches a raw curriculum action against the draft of a course
func (s *curriculumService) ApplyAction(ctx context.Context, courseID int, tutorID *int, action curriculum.Action) (*models.DraftResponse, error) {
	return s.edit(ctx, courseID, tutorID, func(e *curriculum.Editor) error {
		return e.Dispatch(action)
	})
}

// AddSection appends a section to the draft
func (s *curriculumService) AddSection(ctx context.Context, courseID int, tutorID *int, req *models.SectionRequest) (*models.DraftResponse, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("section name is required")
	}
	return s.edit(ctx, courseID, tutorID, func(e *curriculum.Editor) error {
		_, err := e.AddSection(req.Name, req.Description)
		return err
	})
}

// UpdateSection renames a section of the draft
func (s *curriculumService) UpdateSection(ctx context.Context, courseID int, tutorID *int, sectionRef string, req *models.SectionRequest) (*models.DraftResponse, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("section name is required")
	}
	return s.edit(ctx, courseID, tutorID, func(e *curriculum.Editor) error {
		return e.UpdateSection(curriculum.ParseRef(sectionRef), req.Name, req.Description)
	})
}

// DeleteSection removes a section and its lessons from the draft
func (s *curriculumService) DeleteSection(ctx context.Context, courseID int, tutorID *int, sectionRef string) (*models.DraftResponse, error) {
	return s.edit(ctx, courseID, tutorID, func(e *curriculum.Editor) error {
		return e.DeleteSection(curriculum.ParseRef(sectionRef))
	})
}

// ReorderSections reorders the sections of the draft
//
// "order" must list the identifier of every section exactly once.
func (s *curriculumService) ReorderSections(ctx context.Context, courseID int, tutorID *int, order []string) (*models.DraftResponse, error) {
	return s.edit(ctx, courseID, tutorID, func(e *curriculum.Editor) error {
		return e.ReorderSections(parseRefs(order))
	})
}

// AddLesson appends a lesson to a section of the draft
func (s *curriculumService) AddLesson(ctx context.Context, courseID int, tutorID *int, sectionRef string, lesson models.Lesson) (*models.DraftResponse, error) {
	if strings.TrimSpace(lesson.Name) == "" {
		return nil, fmt.Errorf("lesson name is required")
	}
	return s.edit(ctx, courseID, tutorID, func(e *curriculum.Editor) error {
		_, err := e.AddLesson(curriculum.ParseRef(sectionRef), lesson)
		return err
	})
}

// UpdateLesson replaces the content of a lesson of the draft, keeping its identity and position
func (s *curriculumService) UpdateLesson(ctx context.Context, courseID int, tutorID *int, sectionRef, lessonRef string, lesson models.Lesson) (*models.DraftResponse, error) {
	if strings.TrimSpace(lesson.Name) == "" {
		return nil, fmt.Errorf("lesson name is required")
	}
	return s.edit(ctx, courseID, tutorID, func(e *curriculum.Editor) error {
		return e.UpdateLesson(curriculum.ParseRef(sectionRef), curriculum.ParseRef(lessonRef), lesson)
	})
}

// DeleteLesson removes a lesson from a section of the draft
func (s *curriculumService) DeleteLesson(ctx context.Context, courseID int, tutorID *int, sectionRef, lessonRef string) (*models.DraftResponse, error) {
	return s.edit(ctx, courseID, tutorID, func(e *curriculum.Editor) error {
		return e.DeleteLesson(curriculum.ParseRef(sectionRef), curriculum.ParseRef(lessonRef))
	})
}

// ReorderLessons reorders the lessons of a section of the draft
func (s *curriculumService) ReorderLessons(ctx context.Context, courseID int, tutorID *int, sectionRef string, order []string) (*models.DraftResponse, error) {
	return s.edit(ctx, courseID, tutorID, func(e *curriculum.Editor) error {
		return e.ReorderLessons(curriculum.ParseRef(sectionRef), parseRefs(order))
	})
}

// SetCorrectOption marks the only correct option of a quiz question of the draft
func (s *curriculumService) SetCorrectOption(ctx context.Context, courseID int, tutorID *int, sectionRef, lessonRef, questionRef, optionRef string) (*models.DraftResponse, error) {
	if optionRef == "" {
		return nil, fmt.Errorf("option reference is required")
	}
	return s.edit(ctx, courseID, tutorID, func(e *curriculum.Editor) error {
		return e.SetCorrectOption(
			curriculum.ParseRef(sectionRef),
			curriculum.ParseRef(lessonRef),
			curriculum.ParseRef(questionRef),
			curriculum.ParseRef(optionRef),
		)
	})
}

// SaveDraft validates the draft and writes it to the database
//
// The draft is replaced by the saved curriculum so that new entities receive their persisted IDs while
// keeping their temporary ones. A published or rejected course goes back to DRAFT until its next review.
// Courses waiting for review cannot be saved.
func (s *curriculumService) SaveDraft(ctx context.Context, courseID int, tutorID *int) (*models.CurriculumDraft, error) {
	course, err := s.checkCourseAccess(ctx, courseID, tutorID)
	if err != nil {
		return nil, err
	}
	if course.Status == models.CourseStatusPendingReview {
		return nil, fmt.Errorf("course is already pending review")
	}

	draft, err := s.drafts.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if violations := curriculum.Validate(draft.Sections); len(violations) > 0 {
		return nil, &curriculum.ValidationError{Violations: violations}
	}

	// the saved curriculum must never be live under a published status
	if course.Status == models.CourseStatusPublished || course.Status == models.CourseStatusRejected {
		if err := s.courseRepo.UpdateStatus(ctx, courseID, models.CourseStatusDraft); err != nil {
			return nil, err
		}
	}

	saved, err := s.treeRepo.SaveTree(ctx, courseID, draft.Sections)
	if err != nil {
		s.logger.Error("failed to save curriculum", zap.Error(err), zap.Int("courseID", courseID))
		return nil, fmt.Errorf("failed to save curriculum: %w", err)
	}

	updated, err := s.drafts.Update(ctx, courseID, func(d *models.CurriculumDraft) error {
		if d.Version != draft.Version {
			return fmt.Errorf("draft was changed while saving, please save again")
		}
		d.Sections = saved
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DiscardDraft drops the draft of a course; the saved curriculum is not affected
func (s *curriculumService) DiscardDraft(ctx context.Context, courseID int, tutorID *int) error {
	if _, err := s.checkCourseAccess(ctx, courseID, tutorID); err != nil {
		return err
	}
	return s.drafts.Delete(ctx, courseID)
}

// GetPublishedCurriculum returns the saved curriculum of a published course
func (s *curriculumService) GetPublishedCurriculum(ctx context.Context, courseID int) ([]models.Section, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("course not found")
		}
		return nil, err
	}
	if course.Status != models.CourseStatusPublished {
		return nil, fmt.Errorf("course not found")
	}

	sections, err := s.treeRepo.GetTree(ctx, courseID)
	if err != nil {
		s.logger.Error("failed to load curriculum", zap.Error(err), zap.Int("courseID", courseID))
		return nil, fmt.Errorf("failed to load curriculum: %w", err)
	}
	return sections, nil
}

func parseRefs(values []string) []curriculum.Ref {
	refs := make([]curriculum.Ref, len(values))
	for i, v := range values {
		refs[i] = curriculum.ParseRef(v)
	}
	return refs
}
