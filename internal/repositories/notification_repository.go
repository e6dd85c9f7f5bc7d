package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/coursehub/backend/internal/models"
)

type notificationRepository struct {
	db *sql.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB) *notificationRepository {
	return &notificationRepository{db: db}
}

// Create inserts a new notification
func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (user_id, title, message, link)
		VALUES (?, ?, ?, ?)
	`

	var link any
	if n.Link != "" {
		link = n.Link
	}
	result, err := r.db.ExecContext(ctx, query, n.UserID, n.Title, n.Message, link)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	n.ID = int(id)
	return nil
}

// GetByUser retrieves a paginated list of a user's notifications, newest first
func (r *notificationRepository) GetByUser(ctx context.Context, userID int, unreadOnly bool, page, count int) ([]models.Notification, error) {
	query := `
		SELECT id, user_id, title, message, COALESCE(link, ''), is_read, created_at
		FROM notifications
		WHERE user_id = ?`
	args := []any{userID}
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += `
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`
	args = append(args, count, (page-1)*count)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Link, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return notifications, nil
}

// MarkRead marks one of the user's notifications as read
func (r *notificationRepository) MarkRead(ctx context.Context, id, userID int) error {
	result, err := r.db.ExecContext(ctx, "UPDATE notifications SET is_read = TRUE WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	return requireAffected(result, "notification not found")
}

// MarkAllRead marks every unread notification of the user as read and returns how many changed
func (r *notificationRepository) MarkAllRead(ctx context.Context, userID int) (int64, error) {
	result, err := r.db.ExecContext(ctx, "UPDATE notifications SET is_read = TRUE WHERE user_id = ? AND is_read = FALSE", userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}
