package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/coursehub/backend/internal/models"
)

type courseRepository struct {
	db *sql.DB
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(db *sql.DB) *courseRepository {
	return &courseRepository{db: db}
}

const courseColumns = "id, slug, author_id, title, short_summary, price, currency_code, `status`, was_published, created_at, updated_at"

// GetByID retrieves a course by ID
func (r *courseRepository) GetByID(ctx context.Context, id int) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = ? LIMIT 1`

	course := &models.Course{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&course.ID,
		&course.Slug,
		&course.AuthorID,
		&course.Title,
		&course.ShortSummary,
		&course.Price,
		&course.CurrencyCode,
		&course.Status,
		&course.WasPublished,
		&course.CreatedAt,
		&course.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("course not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course by ID: %w", err)
	}

	return course, nil
}

// GetByAuthor retrieves a paginated list of courses, optionally limited to one author.
//
// A nil authorID lists the courses of every author.
func (r *courseRepository) GetByAuthor(ctx context.Context, authorID *int, status models.CourseStatus, search string, page, count int) ([]models.CourseListItem, error) {
	var whereConditions []string
	var args []any

	if authorID != nil {
		whereConditions = append(whereConditions, "author_id = ?")
		args = append(args, *authorID)
	}
	if status != "" {
		whereConditions = append(whereConditions, "`status` = ?")
		args = append(args, status)
	}
	if search != "" {
		whereConditions = append(whereConditions, "title LIKE ?")
		args = append(args, "%"+search+"%")
	}

	whereClause := ""
	if len(whereConditions) > 0 {
		whereClause = "WHERE " + strings.Join(whereConditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT id, slug, title, price, currency_code, `+"`status`"+`, author_id
		FROM courses
		%s
		ORDER BY updated_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, whereClause)
	args = append(args, count, (page-1)*count)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	courses := []models.CourseListItem{}
	for rows.Next() {
		var item models.CourseListItem
		if err := rows.Scan(&item.ID, &item.Slug, &item.Title, &item.Price, &item.CurrencyCode, &item.Status, &item.AuthorID); err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return courses, nil
}

// ExistsBySlug reports whether a course with the given slug exists
func (r *courseRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	return r.exists(ctx, "SELECT EXISTS(SELECT 1 FROM courses WHERE slug = ?)", slug)
}

// ExistsByTitle reports whether a course with the given title exists
func (r *courseRepository) ExistsByTitle(ctx context.Context, title string) (bool, error) {
	return r.exists(ctx, "SELECT EXISTS(SELECT 1 FROM courses WHERE title = ?)", title)
}

func (r *courseRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check course existence: %w", err)
	}
	return exists, nil
}

// Create inserts a new course in DRAFT status and sets its ID
func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	query := `
		INSERT INTO courses (slug, author_id, title, short_summary, price, currency_code, ` + "`status`" + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	if course.Status == "" {
		course.Status = models.CourseStatusDraft
	}
	result, err := r.db.ExecContext(ctx, query,
		course.Slug,
		course.AuthorID,
		course.Title,
		course.ShortSummary,
		course.Price,
		course.CurrencyCode,
		course.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	course.ID = int(id)
	return nil
}

// Update applies a partial update to a course
func (r *courseRepository) Update(ctx context.Context, id int, req *models.UpdateCourseRequest) error {
	var setParts []string
	var args []any

	if req.Slug != "" {
		setParts = append(setParts, "slug = ?")
		args = append(args, req.Slug)
	}
	if req.Title != "" {
		setParts = append(setParts, "title = ?")
		args = append(args, req.Title)
	}
	if req.ShortSummary != "" {
		setParts = append(setParts, "short_summary = ?")
		args = append(args, req.ShortSummary)
	}
	if req.Price != nil {
		setParts = append(setParts, "price = ?")
		args = append(args, *req.Price)
	}
	if req.CurrencyCode != "" {
		setParts = append(setParts, "currency_code = ?")
		args = append(args, req.CurrencyCode)
	}

	if len(setParts) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE courses SET %s WHERE id = ?", strings.Join(setParts, ", "))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}
	return requireAffected(result, "course not found")
}

// UpdateStatus sets the status of a course; PUBLISHED also marks the course as published once
func (r *courseRepository) UpdateStatus(ctx context.Context, id int, status models.CourseStatus) error {
	query := "UPDATE courses SET `status` = ?, was_published = was_published OR ? WHERE id = ?"

	result, err := r.db.ExecContext(ctx, query, status, status == models.CourseStatusPublished, id)
	if err != nil {
		return fmt.Errorf("failed to update course status: %w", err)
	}
	return requireAffected(result, "course not found")
}

// Delete deletes a course together with its curriculum and approval requests
func (r *courseRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM courses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}
	return requireAffected(result, "course not found")
}

// CheckOwnership reports whether the course exists and belongs to the given author
func (r *courseRepository) CheckOwnership(ctx context.Context, courseID, authorID int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM courses WHERE id = ? AND author_id = ?)",
		courseID, authorID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check course ownership: %w", err)
	}
	return exists, nil
}

// requireAffected returns notFound as an error when the statement changed no rows
func requireAffected(result sql.Result, notFound string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s", notFound)
	}
	return nil
}
