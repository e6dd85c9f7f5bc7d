package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/coursehub/backend/internal/models"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// PendingReviewCounter defines the approval request query used by the reminder
type PendingReviewCounter interface {
	// CountPendingOlderThan counts the approval requests pending for longer than "age"
	CountPendingOlderThan(ctx context.Context, age time.Duration) (int, error)
}

// ReviewReminder reminds admins about approval requests that wait too long
type ReviewReminder struct {
	counter       PendingReviewCounter
	tasks         TaskEnqueuer
	notifyUserIDs []int
	olderThan     time.Duration
	logger        *zap.Logger
}

// NewReviewReminder creates a new review reminder
//
// "notifyUserIDs" are the admins that receive an in-app notification; "olderThan" is the waiting time
// after which a request is considered overdue.
func NewReviewReminder(counter PendingReviewCounter, tasks TaskEnqueuer, notifyUserIDs []int, olderThan time.Duration, logger *zap.Logger) *ReviewReminder {
	return &ReviewReminder{
		counter:       counter,
		tasks:         tasks,
		notifyUserIDs: notifyUserIDs,
		olderThan:     olderThan,
		logger:        logger,
	}
}

// Run counts the overdue approval requests and, if there are any, enqueues the admin notifications
// and a review digest email
func (r *ReviewReminder) Run(ctx context.Context) error {
	count, err := r.counter.CountPendingOlderThan(ctx, r.olderThan)
	if err != nil {
		r.logger.Error("failed to count overdue approval requests", zap.Error(err))
		return err
	}
	if count == 0 {
		r.logger.Debug("no overdue approval requests")
		return nil
	}

	message := fmt.Sprintf("%d course(s) have been waiting for review for more than %s", count, r.olderThan)
	for _, userID := range r.notifyUserIDs {
		err := enqueueNotification(ctx, r.tasks, models.NotificationPayload{
			UserID:  userID,
			Title:   "Courses waiting for review",
			Message: message,
			Link:    "/admin/approvals",
		})
		if err != nil {
			r.logger.Error("failed to enqueue review reminder", zap.Error(err), zap.Int("userID", userID))
			return err
		}
	}

	data, err := json.Marshal(models.ReviewDigestPayload{
		PendingCount: count,
		OlderThan:    r.olderThan.String(),
		GeneratedAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode review digest payload: %w", err)
	}
	task := asynq.NewTask(models.TaskTypeReviewDigest, data)
	if _, err := r.tasks.EnqueueContext(ctx, task, asynq.Queue(models.QueueDefault)); err != nil {
		r.logger.Error("failed to enqueue review digest", zap.Error(err))
		return fmt.Errorf("failed to enqueue review digest: %w", err)
	}

	r.logger.Info("review reminder sent", zap.Int("pending", count), zap.Int("recipients", len(r.notifyUserIDs)))
	return nil
}
