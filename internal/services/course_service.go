package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coursehub/backend/internal/models"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

// CourseRepository defines methods for course data access
type CourseRepository interface {
	// GetByID retrieves a course by ID
	//
	// "ctx" is the context for the request.
	// "id" is the ID of the course.
	//
	// Returns the course and an error if any.
	GetByID(ctx context.Context, id int) (*models.Course, error)
	// GetByAuthor retrieves courses by author ID or the full list with filtering and pagination
	//
	// "ctx" is the context for the request.
	// "authorID" is the ID of the author or nil for the full list.
	// "status" is the status of the courses to retrieve (empty for any status).
	// "search" is the search query for course titles.
	// "page" is the page number to retrieve.
	// "count" is the number of items per page.
	//
	// Returns a list of courses and an error if any.
	GetByAuthor(ctx context.Context, authorID *int, status models.CourseStatus, search string, page, count int) ([]models.CourseListItem, error)
	// ExistsBySlug checks if a course with the given slug exists
	//
	// "ctx" is the context for the request.
	// "slug" is the slug of the course.
	//
	// Returns a boolean and an error if any.
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	// ExistsByTitle checks if a course with the given title exists
	//
	// "ctx" is the context for the request.
	// "title" is the title of the course.
	//
	// Returns a boolean and an error if any.
	ExistsByTitle(ctx context.Context, title string) (bool, error)
	// Create creates a new course in DRAFT status
	//
	// "ctx" is the context for the request.
	// "course" is the course to create. Its ID is set on success.
	//
	// Returns an error if any.
	Create(ctx context.Context, course *models.Course) error
	// Update partially updates a course
	//
	// "ctx" is the context for the request.
	// "id" is the ID of the course.
	// "req" contains the fields to change; empty fields are left as they are.
	//
	// Returns an error if any.
	Update(ctx context.Context, id int, req *models.UpdateCourseRequest) error
	// Delete deletes a course with its curriculum
	//
	// "ctx" is the context for the request.
	// "id" is the ID of the course.
	//
	// Returns an error if any.
	Delete(ctx context.Context, id int) error
}

// CurrencyLookup defines the currency check needed when pricing a course
type CurrencyLookup interface {
	// ExistsByCode checks if a currency with the given ISO code exists
	//
	// "ctx" is the context for the request.
	// "code" is the ISO 4217 code of the currency.
	//
	// Returns a boolean and an error if any.
	ExistsByCode(ctx context.Context, code string) (bool, error)
}

// CurriculumReader defines read access to saved curricula
type CurriculumReader interface {
	// GetTree loads the saved curriculum of a course
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	//
	// Returns the ordered list of sections and an error if any.
	GetTree(ctx context.Context, courseID int) ([]models.Section, error)
}

// ReviewSubmitter defines methods for creating approval requests
type ReviewSubmitter interface {
	// ExistsPendingForCourse checks if the course already has a pending approval request
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	//
	// Returns a boolean and an error if any.
	ExistsPendingForCourse(ctx context.Context, courseID int) (bool, error)
	// Create stores a pending approval request and moves its course to PENDING_REVIEW
	//
	// "ctx" is the context for the request.
	// "req" is the request to store. Its ID and status are set on success.
	//
	// Returns an error if any.
	Create(ctx context.Context, req *models.ApprovalRequest) error
}

type courseService struct {
	courseRepo   CourseRepository
	currencyRepo CurrencyLookup
	treeRepo     CurriculumReader
	reviews      ReviewSubmitter
	logger       *zap.Logger
}

// NewCourseService creates a new course service
func NewCourseService(courseRepo CourseRepository, currencyRepo CurrencyLookup, treeRepo CurriculumReader, reviews ReviewSubmitter, logger *zap.Logger) *courseService {
	return &courseService{
		courseRepo:   courseRepo,
		currencyRepo: currencyRepo,
		treeRepo:     treeRepo,
		reviews:      reviews,
		logger:       logger,
	}
}

// GetCourses retrieves a paginated list of courses
//
// A nil tutorID lists the courses of every author (admin view).
// "status" may be empty or one of the course statuses.
func (s *courseService) GetCourses(ctx context.Context, tutorID *int, status string, search string, page, count int) ([]models.CourseListItem, error) {
	courseStatus := models.CourseStatus(status)
	if status != "" && !isValidCourseStatus(courseStatus) {
		return nil, fmt.Errorf("invalid course status")
	}
	if page < 1 {
		page = 1
	}
	if count < 1 {
		count = 20
	}
	return s.courseRepo.GetByAuthor(ctx, tutorID, courseStatus, search, page, count)
}

// GetCourse retrieves a single course the tutor may manage
func (s *courseService) GetCourse(ctx context.Context, courseID int, tutorID *int) (*models.Course, error) {
	return s.getOwnedCourse(ctx, courseID, tutorID)
}

func (s *courseService) getOwnedCourse(ctx context.Context, courseID int, tutorID *int) (*models.Course, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("course not found")
		}
		return nil, err
	}
	// Check ownership (a nil tutorID means that the course is managed by an admin)
	if tutorID != nil && course.AuthorID != *tutorID {
		return nil, fmt.Errorf("you do not have rights to manage this course")
	}
	return course, nil
}

// CreateCourse creates a new course and returns its ID
//
// When no slug is given, it is generated from the title.
func (s *courseService) CreateCourse(ctx context.Context, req *models.CreateCourseRequest) (int, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.ShortSummary = strings.TrimSpace(req.ShortSummary)
	req.CurrencyCode = strings.ToUpper(strings.TrimSpace(req.CurrencyCode))
	if req.Slug == "" {
		req.Slug = slug.Make(req.Title)
	}

	if err := s.validateCreateCourse(ctx, req); err != nil {
		return 0, err
	}

	course := &models.Course{
		Slug:         req.Slug,
		AuthorID:     req.AuthorID,
		Title:        req.Title,
		ShortSummary: req.ShortSummary,
		Price:        req.Price,
		CurrencyCode: req.CurrencyCode,
	}
	if err := s.courseRepo.Create(ctx, course); err != nil {
		return 0, err
	}

	return course.ID, nil
}

func (s *courseService) validateCreateCourse(ctx context.Context, req *models.CreateCourseRequest) error {
	// Validate all fields are provided
	if req.Slug == "" || req.Title == "" || req.ShortSummary == "" || req.CurrencyCode == "" {
		return fmt.Errorf("all fields are required")
	}
	if !slug.IsSlug(req.Slug) {
		return fmt.Errorf("invalid slug '%s'", req.Slug)
	}
	if req.Price < 0 {
		return fmt.Errorf("price must not be negative")
	}

	// Prepare for concurrent check
	errorChan := make(chan error, 3)

	go func() {
		errorChan <- s.checkCurrency(ctx, req.CurrencyCode)
	}()
	go func() {
		exists, err := s.courseRepo.ExistsBySlug(ctx, req.Slug)
		if err != nil {
			errorChan <- err
			return
		}
		if exists {
			errorChan <- fmt.Errorf("course with slug '%s' already exists", req.Slug)
			return
		}
		errorChan <- nil
	}()
	go func() {
		exists, err := s.courseRepo.ExistsByTitle(ctx, req.Title)
		if err != nil {
			errorChan <- err
			return
		}
		if exists {
			errorChan <- fmt.Errorf("course with title '%s' already exists", req.Title)
			return
		}
		errorChan <- nil
	}()

	var firstErr error
	for range 3 {
		if err := <-errorChan; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *courseService) checkCurrency(ctx context.Context, code string) error {
	exists, err := s.currencyRepo.ExistsByCode(ctx, code)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("currency '%s' is not supported", code)
	}
	return nil
}

// UpdateCourse partially updates a course
func (s *courseService) UpdateCourse(ctx context.Context, courseID int, tutorID *int, req *models.UpdateCourseRequest) error {
	course, err := s.getOwnedCourse(ctx, courseID, tutorID)
	if err != nil {
		return err
	}
	if course.Status == models.CourseStatusPendingReview {
		return fmt.Errorf("course is already pending review")
	}

	req.Title = strings.TrimSpace(req.Title)
	req.ShortSummary = strings.TrimSpace(req.ShortSummary)
	req.CurrencyCode = strings.ToUpper(strings.TrimSpace(req.CurrencyCode))

	if err := s.validateUpdateCourse(ctx, course, req); err != nil {
		return err
	}

	return s.courseRepo.Update(ctx, courseID, req)
}

func (s *courseService) validateUpdateCourse(ctx context.Context, course *models.Course, req *models.UpdateCourseRequest) error {
	if req.Slug != "" && !slug.IsSlug(req.Slug) {
		return fmt.Errorf("invalid slug '%s'", req.Slug)
	}
	if req.Price != nil && *req.Price < 0 {
		return fmt.Errorf("price must not be negative")
	}

	errorChan := make(chan error, 3)

	go func() {
		if req.Slug != "" && req.Slug != course.Slug {
			exists, err := s.courseRepo.ExistsBySlug(ctx, req.Slug)
			if err != nil {
				errorChan <- err
				return
			}
			if exists {
				errorChan <- fmt.Errorf("course with slug '%s' already exists", req.Slug)
				return
			}
		}
		errorChan <- nil
	}()
	go func() {
		if req.Title != "" && req.Title != course.Title {
			exists, err := s.courseRepo.ExistsByTitle(ctx, req.Title)
			if err != nil {
				errorChan <- err
				return
			}
			if exists {
				errorChan <- fmt.Errorf("course with title '%s' already exists", req.Title)
				return
			}
		}
		errorChan <- nil
	}()
	go func() {
		if req.CurrencyCode != "" && req.CurrencyCode != course.CurrencyCode {
			errorChan <- s.checkCurrency(ctx, req.CurrencyCode)
			return
		}
		errorChan <- nil
	}()

	var firstErr error
	for range 3 {
		if err := <-errorChan; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DeleteCourse deletes a course with its curriculum and approval history
func (s *courseService) DeleteCourse(ctx context.Context, courseID int, tutorID *int) error {
	if _, err := s.getOwnedCourse(ctx, courseID, tutorID); err != nil {
		return err
	}
	return s.courseRepo.Delete(ctx, courseID)
}

// SubmitForReview sends the saved curriculum of a course to the admins for approval
//
// The request snapshots the curriculum, so later edits do not change what is being reviewed.
func (s *courseService) SubmitForReview(ctx context.Context, courseID int, tutorID *int) (*models.ApprovalRequest, error) {
	course, err := s.getOwnedCourse(ctx, courseID, tutorID)
	if err != nil {
		return nil, err
	}

	pending, err := s.reviews.ExistsPendingForCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if pending || course.Status == models.CourseStatusPendingReview {
		return nil, fmt.Errorf("course is already pending review")
	}

	sections, err := s.treeRepo.GetTree(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if len(sections) == 0 {
		return nil, fmt.Errorf("curriculum must contain at least one section")
	}
	lessonCount := 0
	for _, section := range sections {
		lessonCount += len(section.Lessons)
	}
	if lessonCount == 0 {
		return nil, fmt.Errorf("curriculum must contain at least one lesson")
	}

	snapshot, err := json.Marshal(sections)
	if err != nil {
		return nil, fmt.Errorf("failed to encode curriculum snapshot: %w", err)
	}

	requestType := models.ApprovalRequestTypeNewCourse
	if course.WasPublished {
		requestType = models.ApprovalRequestTypeUpdateCourse
	}
	submittedBy := course.AuthorID
	if tutorID != nil {
		submittedBy = *tutorID
	}

	req := &models.ApprovalRequest{
		CourseID:           courseID,
		RequestType:        requestType,
		SubmittedBy:        submittedBy,
		CurriculumSnapshot: snapshot,
	}
	if err := s.reviews.Create(ctx, req); err != nil {
		s.logger.Error("failed to submit course for review", zap.Error(err), zap.Int("courseID", courseID))
		return nil, err
	}

	return req, nil
}

func isValidCourseStatus(status models.CourseStatus) bool {
	switch status {
	case models.CourseStatusDraft, models.CourseStatusPendingReview, models.CourseStatusPublished, models.CourseStatusRejected:
		return true
	}
	return false
}
