package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/coursehub/backend/internal/models"
)

type approvalRepository struct {
	db *sql.DB
}

// NewApprovalRepository creates a new approval request repository
func NewApprovalRepository(db *sql.DB) *approvalRepository {
	return &approvalRepository{db: db}
}

// Create inserts a pending approval request and moves its course to PENDING_REVIEW in one transaction.
//
// The course row stays locked until commit, so two submissions of the same course cannot both
// pass the pending check.
func (r *approvalRepository) Create(ctx context.Context, req *models.ApprovalRequest) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var courseStatus models.CourseStatus
	err = tx.QueryRowContext(ctx, "SELECT `status` FROM courses WHERE id = ? FOR UPDATE", req.CourseID).Scan(&courseStatus)
	if err == sql.ErrNoRows {
		return fmt.Errorf("course not found")
	}
	if err != nil {
		return fmt.Errorf("failed to lock course: %w", err)
	}

	var pending bool
	err = tx.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM approval_requests WHERE course_id = ? AND `status` = ?)",
		req.CourseID, models.ApprovalStatusPending,
	).Scan(&pending)
	if err != nil {
		return fmt.Errorf("failed to check pending approval requests: %w", err)
	}
	if pending || courseStatus == models.CourseStatusPendingReview {
		return fmt.Errorf("course is already pending review")
	}

	query := `
		INSERT INTO approval_requests (course_id, request_type, ` + "`status`" + `, submitted_by, curriculum_snapshot)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := tx.ExecContext(ctx, query, req.CourseID, req.RequestType, models.ApprovalStatusPending, req.SubmittedBy, []byte(req.CurriculumSnapshot))
	if err != nil {
		return fmt.Errorf("failed to create approval request: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "UPDATE courses SET `status` = ? WHERE id = ?", models.CourseStatusPendingReview, req.CourseID); err != nil {
		return fmt.Errorf("failed to update course status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	req.ID = int(id)
	req.Status = models.ApprovalStatusPending
	return nil
}

// GetByID retrieves an approval request by ID, including its curriculum snapshot
func (r *approvalRepository) GetByID(ctx context.Context, id int) (*models.ApprovalRequest, error) {
	query := `
		SELECT id, course_id, request_type, ` + "`status`" + `, submitted_by, reviewed_by,
			COALESCE(admin_notes, ''), curriculum_snapshot, created_at, reviewed_at
		FROM approval_requests
		WHERE id = ?
		LIMIT 1
	`

	req := &models.ApprovalRequest{}
	var (
		reviewedBy sql.NullInt64
		reviewedAt sql.NullTime
		snapshot   []byte
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&req.ID,
		&req.CourseID,
		&req.RequestType,
		&req.Status,
		&req.SubmittedBy,
		&reviewedBy,
		&req.AdminNotes,
		&snapshot,
		&req.CreatedAt,
		&reviewedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("approval request not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get approval request by ID: %w", err)
	}

	if reviewedBy.Valid {
		v := int(reviewedBy.Int64)
		req.ReviewedBy = &v
	}
	if reviewedAt.Valid {
		req.ReviewedAt = &reviewedAt.Time
	}
	req.CurriculumSnapshot = snapshot
	return req, nil
}

// List retrieves a paginated list of approval requests with the given status, oldest first
func (r *approvalRepository) List(ctx context.Context, status models.ApprovalStatus, page, count int) ([]models.ApprovalListItem, error) {
	query := `
		SELECT a.id, a.course_id, c.title, a.request_type, a.` + "`status`" + `, a.submitted_by, a.created_at
		FROM approval_requests a
		JOIN courses c ON c.id = a.course_id
		WHERE a.` + "`status`" + ` = ?
		ORDER BY a.created_at ASC, a.id ASC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.QueryContext(ctx, query, status, count, (page-1)*count)
	if err != nil {
		return nil, fmt.Errorf("failed to query approval requests: %w", err)
	}
	defer rows.Close()

	items := []models.ApprovalListItem{}
	for rows.Next() {
		var item models.ApprovalListItem
		if err := rows.Scan(&item.ID, &item.CourseID, &item.CourseTitle, &item.RequestType, &item.Status, &item.SubmittedBy, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan approval request: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return items, nil
}

// ExistsPendingForCourse reports whether the course already waits for a review
func (r *approvalRepository) ExistsPendingForCourse(ctx context.Context, courseID int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM approval_requests WHERE course_id = ? AND `status` = ?)",
		courseID, models.ApprovalStatusPending,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pending approval requests: %w", err)
	}
	return exists, nil
}

// Decide records an admin decision on a pending request and updates the course status accordingly.
//
// An approved course becomes PUBLISHED, a rejected one REJECTED. Both writes happen in one
// transaction, and a request that is no longer pending is left untouched.
func (r *approvalRepository) Decide(ctx context.Context, id int, decision models.ApprovalStatus, reviewerID int, notes string) error {
	courseStatus := models.CourseStatusRejected
	if decision == models.ApprovalStatusApproved {
		courseStatus = models.CourseStatusPublished
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE approval_requests
		SET ` + "`status`" + ` = ?, reviewed_by = ?, admin_notes = ?, reviewed_at = CURRENT_TIMESTAMP
		WHERE id = ? AND ` + "`status`" + ` = ?
	`
	result, err := tx.ExecContext(ctx, query, decision, reviewerID, notes, id, models.ApprovalStatusPending)
	if err != nil {
		return fmt.Errorf("failed to update approval request: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM approval_requests WHERE id = ?)", id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check approval request existence: %w", err)
		}
		if exists {
			return fmt.Errorf("approval request has already been reviewed")
		}
		return fmt.Errorf("approval request not found")
	}

	courseQuery := `
		UPDATE courses c
		JOIN approval_requests a ON a.course_id = c.id
		SET c.` + "`status`" + ` = ?, c.was_published = c.was_published OR ?
		WHERE a.id = ?
	`
	if _, err := tx.ExecContext(ctx, courseQuery, courseStatus, courseStatus == models.CourseStatusPublished, id); err != nil {
		return fmt.Errorf("failed to update course status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CountPendingOlderThan counts the requests that have been pending for longer than age
func (r *approvalRepository) CountPendingOlderThan(ctx context.Context, age time.Duration) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM approval_requests WHERE `status` = ? AND created_at < ?",
		models.ApprovalStatusPending, time.Now().Add(-age),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending approval requests: %w", err)
	}
	return count, nil
}
