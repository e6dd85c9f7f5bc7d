package services

import (
	"context"
	"errors"
	"testing"

	"github.com/coursehub/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNotificationService_Deliver(t *testing.T) {
	tests := []struct {
		name          string
		payload       models.NotificationPayload
		repo          *mockNotificationRepository
		expectedError string
	}{
		{
			name:    "success",
			payload: models.NotificationPayload{UserID: 7, Title: "Course approved", Message: "Done", Link: "/instructor/courses/1"},
			repo:    &mockNotificationRepository{},
		},
		{
			name:          "no recipient",
			payload:       models.NotificationPayload{Title: "Hi"},
			repo:          &mockNotificationRepository{},
			expectedError: "invalid notification recipient",
		},
		{
			name:          "no title",
			payload:       models.NotificationPayload{UserID: 7, Title: " "},
			repo:          &mockNotificationRepository{},
			expectedError: "notification title is required",
		},
		{
			name:          "repository error",
			payload:       models.NotificationPayload{UserID: 7, Title: "Hi"},
			repo:          &mockNotificationRepository{err: errors.New("db error")},
			expectedError: "db error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := zap.NewDevelopment()
			svc := NewNotificationService(tt.repo, logger)

			err := svc.Deliver(context.Background(), tt.payload)

			if tt.expectedError != "" {
				assert.EqualError(t, err, tt.expectedError)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, &models.Notification{
				ID:      1,
				UserID:  7,
				Title:   "Course approved",
				Message: "Done",
				Link:    "/instructor/courses/1",
			}, tt.repo.created)
		})
	}
}

func TestNotificationService_List(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	repo := &mockNotificationRepository{notifications: []models.Notification{{ID: 1}}}
	svc := NewNotificationService(repo, logger)

	result, err := svc.List(context.Background(), 7, true, 0, -1)

	assert.NoError(t, err)
	assert.Len(t, result, 1)
	assert.True(t, repo.unreadOnly)
	assert.Equal(t, 1, repo.page)
	assert.Equal(t, 20, repo.count)
}

func TestNotificationService_MarkRead(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	svc := NewNotificationService(&mockNotificationRepository{}, logger)

	assert.EqualError(t, svc.MarkRead(context.Background(), 0, 7), "invalid notification id")
	assert.NoError(t, svc.MarkRead(context.Background(), 3, 7))

	failing := NewNotificationService(&mockNotificationRepository{err: errors.New("notification not found")}, logger)
	assert.EqualError(t, failing.MarkRead(context.Background(), 3, 7), "notification not found")
}

func TestNotificationService_MarkAllRead(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	svc := NewNotificationService(&mockNotificationRepository{marked: 4}, logger)

	n, err := svc.MarkAllRead(context.Background(), 7)

	assert.NoError(t, err)
	assert.Equal(t, int64(4), n)
}
