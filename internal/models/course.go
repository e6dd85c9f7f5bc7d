package models

import "time"

// CourseStatus represents the publication state of a course
type CourseStatus string

const (
	CourseStatusDraft         CourseStatus = "DRAFT"
	CourseStatusPendingReview CourseStatus = "PENDING_REVIEW"
	CourseStatusPublished     CourseStatus = "PUBLISHED"
	CourseStatusRejected      CourseStatus = "REJECTED"
)

// Course represents a course in the marketplace
type Course struct {
	ID           int          `json:"id"`
	Slug         string       `json:"slug"`
	AuthorID     int          `json:"authorId"`
	Title        string       `json:"title"`
	ShortSummary string       `json:"shortSummary"`
	Price        float64      `json:"price"`
	CurrencyCode string       `json:"currencyCode"`
	Status       CourseStatus `json:"status"`
	// WasPublished is set once a course has passed review at least once
	WasPublished bool      `json:"wasPublished"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CourseListItem represents a course in list responses
type CourseListItem struct {
	ID           int          `json:"id"`
	Slug         string       `json:"slug"`
	Title        string       `json:"title"`
	Price        float64      `json:"price"`
	CurrencyCode string       `json:"currencyCode"`
	Status       CourseStatus `json:"status"`
	AuthorID     int          `json:"authorId,omitempty"`
}

// CreateCourseRequest represents a request to create a course
type CreateCourseRequest struct {
	AuthorID     int     `json:"-"`
	Slug         string  `json:"slug,omitempty" example:"go-for-beginners"`
	Title        string  `json:"title" example:"Go for beginners"`
	ShortSummary string  `json:"shortSummary" example:"Learn Go from scratch"`
	Price        float64 `json:"price" example:"19.99"`
	CurrencyCode string  `json:"currencyCode" example:"USD"`
}

// UpdateCourseRequest represents a request to update a course (partial update)
type UpdateCourseRequest struct {
	Slug         string   `json:"slug,omitempty"`
	Title        string   `json:"title,omitempty"`
	ShortSummary string   `json:"shortSummary,omitempty"`
	Price        *float64 `json:"price,omitempty"`
	CurrencyCode string   `json:"currencyCode,omitempty"`
}
