package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coursehub/backend/internal/models"
	"go.uber.org/zap"
)

// ApprovalRepository defines methods for approval request data access
type ApprovalRepository interface {
	// GetByID retrieves an approval request by ID
	//
	// "ctx" is the context for the request.
	// "id" is the ID of the approval request.
	//
	// Returns the approval request (with its curriculum snapshot) and an error if any.
	GetByID(ctx context.Context, id int) (*models.ApprovalRequest, error)
	// List retrieves approval requests with the given status, oldest first
	//
	// "ctx" is the context for the request.
	// "status" is the status of the requests to retrieve.
	// "page" is the page number to retrieve.
	// "count" is the number of items per page.
	//
	// Returns a list of approval requests and an error if any.
	List(ctx context.Context, status models.ApprovalStatus, page, count int) ([]models.ApprovalListItem, error)
	// Decide records an admin decision and updates the course status in one transaction
	//
	// "ctx" is the context for the request.
	// "id" is the ID of the approval request.
	// "decision" is either APPROVED or REJECTED.
	// "reviewerID" is the ID of the admin.
	// "notes" are the admin notes (may be empty).
	//
	// Returns an error if any, including when the request is no longer pending.
	Decide(ctx context.Context, id int, decision models.ApprovalStatus, reviewerID int, notes string) error
}

// ApprovalCourseRepository defines the course data access needed to review courses
type ApprovalCourseRepository interface {
	// GetByID retrieves a course by ID
	//
	// "ctx" is the context for the request.
	// "id" is the ID of the course.
	//
	// Returns the course and an error if any.
	GetByID(ctx context.Context, id int) (*models.Course, error)
}

type approvalService struct {
	approvalRepo ApprovalRepository
	courseRepo   ApprovalCourseRepository
	tasks        TaskEnqueuer
	logger       *zap.Logger
}

// NewApprovalService creates a new approval service
func NewApprovalService(approvalRepo ApprovalRepository, courseRepo ApprovalCourseRepository, tasks TaskEnqueuer, logger *zap.Logger) *approvalService {
	return &approvalService{
		approvalRepo: approvalRepo,
		courseRepo:   courseRepo,
		tasks:        tasks,
		logger:       logger,
	}
}

// ListRequests retrieves a paginated list of approval requests
//
// An empty status lists the pending requests.
func (s *approvalService) ListRequests(ctx context.Context, status string, page, count int) ([]models.ApprovalListItem, error) {
	approvalStatus := models.ApprovalStatus(status)
	switch approvalStatus {
	case "":
		approvalStatus = models.ApprovalStatusPending
	case models.ApprovalStatusPending, models.ApprovalStatusApproved, models.ApprovalStatusRejected:
	default:
		return nil, fmt.Errorf("invalid approval status")
	}
	if page < 1 {
		page = 1
	}
	if count < 1 {
		count = 20
	}
	return s.approvalRepo.List(ctx, approvalStatus, page, count)
}

// GetRequestDetail retrieves an approval request together with its course and the curriculum under review
func (s *approvalService) GetRequestDetail(ctx context.Context, id int) (*models.ApprovalDetail, error) {
	req, err := s.approvalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	course, err := s.courseRepo.GetByID(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}

	sections := []models.Section{}
	if len(req.CurriculumSnapshot) > 0 {
		if err := json.Unmarshal(req.CurriculumSnapshot, &sections); err != nil {
			s.logger.Error("failed to decode curriculum snapshot", zap.Error(err), zap.Int("approvalID", id))
			return nil, fmt.Errorf("failed to decode curriculum snapshot: %w", err)
		}
	}

	return &models.ApprovalDetail{Request: req, Course: course, Curriculum: sections}, nil
}

// Approve publishes the course of a pending request and notifies its author
func (s *approvalService) Approve(ctx context.Context, id, reviewerID int, notes string) error {
	return s.decide(ctx, id, models.ApprovalStatusApproved, reviewerID, strings.TrimSpace(notes))
}

// Reject rejects the course of a pending request and notifies its author
//
// Rejections must explain what to change, so notes are required.
func (s *approvalService) Reject(ctx context.Context, id, reviewerID int, notes string) error {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return fmt.Errorf("admin notes are required when rejecting")
	}
	return s.decide(ctx, id, models.ApprovalStatusRejected, reviewerID, notes)
}

func (s *approvalService) decide(ctx context.Context, id int, decision models.ApprovalStatus, reviewerID int, notes string) error {
	req, err := s.approvalRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if req.Status != models.ApprovalStatusPending {
		return fmt.Errorf("approval request has already been reviewed")
	}

	course, err := s.courseRepo.GetByID(ctx, req.CourseID)
	if err != nil {
		return err
	}

	if err := s.approvalRepo.Decide(ctx, id, decision, reviewerID, notes); err != nil {
		return err
	}

	s.logger.Info("approval request decided",
		zap.Int("approvalID", id),
		zap.Int("courseID", course.ID),
		zap.String("decision", string(decision)),
		zap.Int("reviewerID", reviewerID),
	)

	return enqueueNotification(ctx, s.tasks, decisionNotification(course, decision, notes))
}

func decisionNotification(course *models.Course, decision models.ApprovalStatus, notes string) models.NotificationPayload {
	payload := models.NotificationPayload{
		UserID: course.AuthorID,
		Link:   fmt.Sprintf("/instructor/courses/%d", course.ID),
	}
	if decision == models.ApprovalStatusApproved {
		payload.Title = "Course approved"
		payload.Message = fmt.Sprintf("Your course \"%s\" has been approved and published.", course.Title)
	} else {
		payload.Title = "Course rejected"
		payload.Message = fmt.Sprintf("Your course \"%s\" has been rejected.", course.Title)
	}
	if notes != "" {
		payload.Message += " Admin notes: " + notes
	}
	return payload
}
