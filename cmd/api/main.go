package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/coursehub/backend/docs"
	"github.com/coursehub/backend/internal/auth"
	"github.com/coursehub/backend/internal/config"
	"github.com/coursehub/backend/internal/curriculum"
	"github.com/coursehub/backend/internal/database"
	"github.com/coursehub/backend/internal/handlers"
	"github.com/coursehub/backend/internal/logger"
	"github.com/coursehub/backend/internal/middleware"
	"github.com/coursehub/backend/internal/repositories"
	"github.com/coursehub/backend/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// @title CourseHub Course API
// @version 1.0
// @description API for course authoring, curriculum editing and course approval

// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
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

	logger.Logger.Info("Starting Course API")

	// Connect to database
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := database.Migrate(db, database.MigrationsPath()); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

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

	// Create Asynq client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	tokenValidator := auth.NewTokenGenerator(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)

	// Initialize repositories
	courseRepo := repositories.NewCourseRepository(db)
	curriculumRepo := repositories.NewCurriculumRepository(db)
	draftRepo := repositories.NewDraftRepository(rdb, cfg.Drafts.TTL)
	approvalRepo := repositories.NewApprovalRepository(db)
	currencyRepo := repositories.NewCurrencyRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)

	// Initialize services
	curriculumService := services.NewCurriculumService(courseRepo, curriculumRepo, draftRepo, curriculum.UUIDGenerator{}, logger.Logger)
	courseService := services.NewCourseService(courseRepo, currencyRepo, curriculumRepo, approvalRepo, logger.Logger)
	approvalService := services.NewApprovalService(approvalRepo, courseRepo, asynqClient, logger.Logger)
	currencyService := services.NewCurrencyService(currencyRepo, logger.Logger)
	notificationService := services.NewNotificationService(notificationRepo, logger.Logger)

	// Initialize handlers
	curriculumHandler := handlers.NewCurriculumHandler(curriculumService, logger.Logger)
	courseHandler := handlers.NewCourseHandler(courseService, logger.Logger)
	approvalHandler := handlers.NewApprovalHandler(approvalService, logger.Logger)
	currencyHandler := handlers.NewCurrencyHandler(currencyService, logger.Logger)
	notificationHandler := handlers.NewNotificationHandler(notificationService, logger.Logger)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(logger.Middleware(logger.Logger))
	r.Use(middleware.RecoveryMiddleware(logger.Logger))
	r.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(100, time.Minute))
	r.Use(middleware.RequestSizeLimitMiddleware(10 * 1024 * 1024)) // 10MB

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(tokenValidator))

		// Any authenticated user
		r.Group(func(r chi.Router) {
			curriculumHandler.RegisterPublicRoutes(r)
			notificationHandler.RegisterRoutes(r)
		})

		// Instructors (and admins)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RoleMiddleware(auth.RoleInstructor))
			courseHandler.RegisterRoutes(r)
			curriculumHandler.RegisterRoutes(r)
		})

		// Admins
		r.Group(func(r chi.Router) {
			r.Use(middleware.RoleMiddleware(auth.RoleAdmin))
			approvalHandler.RegisterRoutes(r)
			currencyHandler.RegisterRoutes(r)
		})
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}
