package models

import "time"

// Notification represents an in-app notification for a user
type Notification struct {
	ID        int       `json:"id"`
	UserID    int       `json:"userId"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// Task type names processed by the worker
const (
	TaskTypeDeliverNotification = "notification:deliver"
	TaskTypeReviewDigest        = "review:digest"
)

// Queue names used by the worker
const (
	QueueNotifications = "notifications"
	QueueDefault       = "default"
)

// NotificationPayload represents the payload of a notification delivery task
type NotificationPayload struct {
	UserID  int    `json:"userId"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Link    string `json:"link,omitempty"`
}

// ReviewDigestPayload represents the payload of a review digest email task
type ReviewDigestPayload struct {
	PendingCount int       `json:"pendingCount"`
	OlderThan    string    `json:"olderThan"`
	GeneratedAt  time.Time `json:"generatedAt"`
}
