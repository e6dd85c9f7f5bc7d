package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coursehub/backend/internal/models"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"gopkg.in/mail.v2"
)

// NotificationDeliverer defines the interface for storing delivered notifications
type NotificationDeliverer interface {
	// Deliver stores a notification for its recipient
	//
	// "payload" is the decoded notification task payload.
	//
	// If the payload is invalid or the notification cannot be stored, an error is returned.
	Deliver(ctx context.Context, payload models.NotificationPayload) error
}

// Mailer defines the interface for sending emails
type Mailer interface {
	// Send sends an HTML email to a single recipient
	Send(to, subject, body string) error
}

// Worker handles task processing
type Worker struct {
	logger        *zap.Logger
	notifications NotificationDeliverer
	mailer        Mailer
	reviewMailbox string
}

// NewWorker creates a new worker instance
//
// "reviewMailbox" receives the review digest; an empty mailbox drops digest tasks.
func NewWorker(logger *zap.Logger, notifications NotificationDeliverer, mailer Mailer, reviewMailbox string) *Worker {
	return &Worker{
		logger:        logger,
		notifications: notifications,
		mailer:        mailer,
		reviewMailbox: reviewMailbox,
	}
}

// HandleDeliverNotification handles notification delivery tasks
func (w *Worker) HandleDeliverNotification(ctx context.Context, t *asynq.Task) error {
	var payload models.NotificationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		// A malformed payload never becomes valid, so there is no point retrying it
		return fmt.Errorf("failed to parse notification payload: %v: %w", err, asynq.SkipRetry)
	}

	if err := w.notifications.Deliver(ctx, payload); err != nil {
		if strings.Contains(err.Error(), "invalid") || strings.Contains(err.Error(), "required") {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	w.logger.Info("Notification delivered", zap.Int("user_id", payload.UserID), zap.String("title", payload.Title))
	return nil
}

// HandleReviewDigest handles review digest tasks by emailing the review mailbox
func (w *Worker) HandleReviewDigest(ctx context.Context, t *asynq.Task) error {
	var payload models.ReviewDigestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to parse review digest payload: %v: %w", err, asynq.SkipRetry)
	}

	if w.reviewMailbox == "" {
		w.logger.Debug("Review mailbox is not configured, digest dropped", zap.Int("pending", payload.PendingCount))
		return nil
	}

	subject := fmt.Sprintf("%d course(s) waiting for review", payload.PendingCount)
	body := fmt.Sprintf(
		"<p>%d course(s) have been waiting for review for more than %s.</p><p>Generated at %s.</p>",
		payload.PendingCount,
		payload.OlderThan,
		payload.GeneratedAt.Format("2006-01-02 15:04 MST"),
	)
	if err := w.mailer.Send(w.reviewMailbox, subject, body); err != nil {
		return err
	}

	w.logger.Info("Review digest sent", zap.Int("pending", payload.PendingCount))
	return nil
}

// smtpMailer sends emails using gopkg.in/mail.v2
type smtpMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPMailer creates a mailer for the given SMTP server
func NewSMTPMailer(host string, port int, username, password, from string) Mailer {
	return &smtpMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// Send sends an email
func (m *smtpMailer) Send(to, subject, body string) error {
	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	d := mail.NewDialer(m.host, m.port, m.username, m.password)
	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
