package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/coursehub/backend/internal/config"
	"github.com/coursehub/backend/internal/database"
	"github.com/coursehub/backend/internal/logger"
	"github.com/coursehub/backend/internal/models"
	"github.com/coursehub/backend/internal/repositories"
	"github.com/coursehub/backend/internal/services"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting Course Worker")

	// Connect to database
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Connect to Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	// The reminder enqueues its own notification and digest tasks
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	// Initialize repositories and services
	notificationRepo := repositories.NewNotificationRepository(db)
	approvalRepo := repositories.NewApprovalRepository(db)
	notificationService := services.NewNotificationService(notificationRepo, logger.Logger)
	reminder := services.NewReviewReminder(approvalRepo, asynqClient, cfg.Review.NotifyUserIDs, cfg.Review.ReminderAfter, logger.Logger)

	// Create Asynq server
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Queues: map[string]int{
			models.QueueNotifications: 5,
			models.QueueDefault:       1,
		},
		Logger: logger.Logger.Sugar(),
	})

	worker := NewWorker(
		logger.Logger,
		notificationService,
		NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From),
		cfg.Review.Mailbox,
	)

	// Register task handlers
	mux := asynq.NewServeMux()
	mux.HandleFunc(models.TaskTypeDeliverNotification, worker.HandleDeliverNotification)
	mux.HandleFunc(models.TaskTypeReviewDigest, worker.HandleReviewDigest)

	scheduler, err := NewScheduler(cfg.Review.ReminderCron, reminder, logger.Logger)
	if err != nil {
		logger.Logger.Fatal("Failed to create scheduler", zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Start worker
	go func() {
		if err := srv.Run(mux); err != nil {
			logger.Logger.Fatal("Failed to start worker", zap.Error(err))
		}
	}()

	logger.Logger.Info("Worker started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down worker...")
	srv.Shutdown()
	logger.Logger.Info("Worker exited")
}
