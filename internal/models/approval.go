package models

import (
	"encoding/json"
	"time"
)

// ApprovalStatus represents the state of an approval request
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "PENDING"
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusRejected ApprovalStatus = "REJECTED"
)

// ApprovalRequestType represents the reason a course was submitted for review
type ApprovalRequestType string

const (
	ApprovalRequestTypeNewCourse    ApprovalRequestType = "NEW_COURSE"
	ApprovalRequestTypeUpdateCourse ApprovalRequestType = "UPDATE_COURSE"
)

// ApprovalRequest represents a course waiting for an admin decision
type ApprovalRequest struct {
	ID                 int                 `json:"id"`
	CourseID           int                 `json:"courseId"`
	RequestType        ApprovalRequestType `json:"requestType"`
	Status             ApprovalStatus      `json:"status"`
	SubmittedBy        int                 `json:"submittedBy"`
	ReviewedBy         *int                `json:"reviewedBy,omitempty"`
	AdminNotes         string              `json:"adminNotes,omitempty"`
	CurriculumSnapshot json.RawMessage     `json:"-"`
	CreatedAt          time.Time           `json:"createdAt"`
	ReviewedAt         *time.Time          `json:"reviewedAt,omitempty"`
}

// ApprovalListItem represents an approval request in list responses
type ApprovalListItem struct {
	ID          int                 `json:"id"`
	CourseID    int                 `json:"courseId"`
	CourseTitle string              `json:"courseTitle"`
	RequestType ApprovalRequestType `json:"requestType"`
	Status      ApprovalStatus      `json:"status"`
	SubmittedBy int                 `json:"submittedBy"`
	CreatedAt   time.Time           `json:"createdAt"`
}

// ApprovalDetail represents an approval request with the course and curriculum snapshot under review
type ApprovalDetail struct {
	Request    *ApprovalRequest `json:"request"`
	Course     *Course          `json:"course"`
	Curriculum []Section        `json:"curriculum"`
}

// ReviewDecisionRequest represents an admin decision on an approval request
type ReviewDecisionRequest struct {
	Notes string `json:"notes" example:"Please add subtitles to section 2"`
}
