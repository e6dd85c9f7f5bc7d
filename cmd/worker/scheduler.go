package main

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// reminderTimeout bounds a single run of the review reminder
const reminderTimeout = time.Minute

// ReviewReminderRunner defines the job run by the scheduler
type ReviewReminderRunner interface {
	// Run checks for overdue approval requests and enqueues the reminders
	Run(ctx context.Context) error
}

// Scheduler runs the periodic review reminder
type Scheduler struct {
	cron     *cron.Cron
	reminder ReviewReminderRunner
	logger   *zap.Logger
}

// NewScheduler creates a scheduler running the reminder on the standard 5-field cron "spec"
func NewScheduler(spec string, reminder ReviewReminderRunner, logger *zap.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:     cron.New(),
		reminder: reminder,
		logger:   logger,
	}
	if _, err := s.cron.AddFunc(spec, s.runReminder); err != nil {
		return nil, fmt.Errorf("invalid review reminder schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started")
}

// Stop stops the scheduler and waits for a running reminder to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) runReminder() {
	ctx, cancel := context.WithTimeout(context.Background(), reminderTimeout)
	defer cancel()

	if err := s.reminder.Run(ctx); err != nil {
		s.logger.Error("Review reminder failed", zap.Error(err))
	}
}
