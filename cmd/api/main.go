package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/quizzq/quizzq-api/internal/config"
	"github.com/quizzq/quizzq-api/internal/database"
	"github.com/quizzq/quizzq-api/internal/handler"
	"github.com/quizzq/quizzq-api/internal/middleware"
	"github.com/quizzq/quizzq-api/internal/models"
	"github.com/quizzq/quizzq-api/internal/repository"
	"github.com/quizzq/quizzq-api/internal/router"
	"github.com/quizzq/quizzq-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Student{}, &models.Assignment{}, &models.Question{}, &models.Submission{}, &models.Answer{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	validate := validator.New(validator.WithRequiredStructEnabled())

	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	assignmentService := service.NewAssignmentService(assignmentRepo, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, validate, logger)
	reviewService := service.NewReviewService(submissionRepo, validate, logger)
	progressService := service.NewProgressService(assignmentRepo, submissionRepo, redisClient, cfg.ProgressCacheTTL, logger)

	assignmentHandler := handler.NewAssignmentHandler(assignmentService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, logger)
	teacherAssignmentHandler := handler.NewTeacherAssignmentHandler(assignmentService, submissionService, logger)
	reviewHandler := handler.NewReviewHandler(reviewService, logger)
	progressHandler := handler.NewProgressHandler(progressService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AssignmentHandler:        assignmentHandler,
		SubmissionHandler:        submissionHandler,
		TeacherAssignmentHandler: teacherAssignmentHandler,
		ReviewHandler:            reviewHandler,
		ProgressHandler:          progressHandler,
		JWTMiddleware:            middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
