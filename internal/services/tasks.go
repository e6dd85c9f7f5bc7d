package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coursehub/backend/internal/models"
	"github.com/hibiken/asynq"
)

// notificationMaxRetry is the number of delivery attempts of a notification task
const notificationMaxRetry = 5

// TaskEnqueuer defines the subset of the asynq client used to schedule background work
type TaskEnqueuer interface {
	// EnqueueContext enqueues a task for processing by the worker
	//
	// "ctx" is the context for the request.
	// "task" is the task to enqueue.
	// "opts" are asynq options such as the queue name.
	//
	// Returns the task info and an error if any.
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

func enqueueNotification(ctx context.Context, enqueuer TaskEnqueuer, payload models.NotificationPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode notification payload: %w", err)
	}
	task := asynq.NewTask(models.TaskTypeDeliverNotification, data)
	if _, err := enqueuer.EnqueueContext(ctx, task, asynq.Queue(models.QueueNotifications), asynq.MaxRetry(notificationMaxRetry)); err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}
	return nil
}
