package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/coursehub/backend/internal/models"
	"go.uber.org/zap"
)

// NotificationRepository defines methods for notification data access
type NotificationRepository interface {
	// Create stores a new notification
	//
	// "ctx" is the context for the request.
	// "n" is the notification to store. Its ID is set on success.
	//
	// Returns an error if any.
	Create(ctx context.Context, n *models.Notification) error
	// GetByUser retrieves a paginated list of a user's notifications, newest first
	//
	// "ctx" is the context for the request.
	// "userID" is the ID of the recipient.
	// "unreadOnly" limits the list to unread notifications.
	// "page" is the page number to retrieve.
	// "count" is the number of items per page.
	//
	// Returns a list of notifications and an error if any.
	GetByUser(ctx context.Context, userID int, unreadOnly bool, page, count int) ([]models.Notification, error)
	// MarkRead marks a notification of the user as read
	//
	// "ctx" is the context for the request.
	// "id" is the ID of the notification.
	// "userID" is the ID of the recipient.
	//
	// Returns an error if any.
	MarkRead(ctx context.Context, id, userID int) error
	// MarkAllRead marks every notification of the user as read
	//
	// "ctx" is the context for the request.
	// "userID" is the ID of the recipient.
	//
	// Returns the number of notifications changed and an error if any.
	MarkAllRead(ctx context.Context, userID int) (int64, error)
}

type notificationService struct {
	repo   NotificationRepository
	logger *zap.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(repo NotificationRepository, logger *zap.Logger) *notificationService {
	return &notificationService{
		repo:   repo,
		logger: logger,
	}
}

// Deliver stores a notification produced by a background task
func (s *notificationService) Deliver(ctx context.Context, payload models.NotificationPayload) error {
	if payload.UserID <= 0 {
		return fmt.Errorf("invalid notification recipient")
	}
	if strings.TrimSpace(payload.Title) == "" {
		return fmt.Errorf("notification title is required")
	}

	n := &models.Notification{
		UserID:  payload.UserID,
		Title:   payload.Title,
		Message: payload.Message,
		Link:    payload.Link,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Error("failed to deliver notification", zap.Error(err), zap.Int("userID", payload.UserID))
		return err
	}
	return nil
}

// List retrieves a paginated list of the user's notifications
func (s *notificationService) List(ctx context.Context, userID int, unreadOnly bool, page, count int) ([]models.Notification, error) {
	if page < 1 {
		page = 1
	}
	if count < 1 {
		count = 20
	}
	return s.repo.GetByUser(ctx, userID, unreadOnly, page, count)
}

// MarkRead marks one of the user's notifications as read
func (s *notificationService) MarkRead(ctx context.Context, id, userID int) error {
	if id <= 0 {
		return fmt.Errorf("invalid notification id")
	}
	return s.repo.MarkRead(ctx, id, userID)
}

// MarkAllRead marks every notification of the user as read
func (s *notificationService) MarkAllRead(ctx context.Context, userID int) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}
