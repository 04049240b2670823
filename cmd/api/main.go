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

	"github.com/noah-isme/classhub-api/internal/config"
	"github.com/noah-isme/classhub-api/internal/database"
	"github.com/noah-isme/classhub-api/internal/handler"
	"github.com/noah-isme/classhub-api/internal/middleware"
	"github.com/noah-isme/classhub-api/internal/models"
	"github.com/noah-isme/classhub-api/internal/repository"
	"github.com/noah-isme/classhub-api/internal/router"
	"github.com/noah-isme/classhub-api/internal/service"
	"github.com/noah-isme/classhub-api/pkg/ai"
	cloud "github.com/noah-isme/classhub-api/pkg/cloudinary"
	"github.com/noah-isme/classhub-api/pkg/ocr"
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

	if err := db.AutoMigrate(
		&models.User{},
		&models.Class{},
		&models.ClassMember{},
		&models.Assignment{},
		&models.Submission{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		// Events are fire-and-forget; the API still serves without a
		// broker.
		logger.Warn().Err(err).Msg("nats unavailable, graded events disabled")
		natsConn = nil
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	storage, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	grader, err := ai.NewOpenAIGrader(ai.OpenAIConfig{
		APIKey: cfg.OpenAIAPIKey,
		Model:  cfg.OpenAIScoringModel,
		Logger: logger,
	})
	if err != nil {
		log.Fatalf("failed to create ai grader: %v", err)
	}

	extractor, err := ocr.NewVisionExtractor(ocr.VisionConfig{
		APIKey: cfg.OpenAIAPIKey,
		Model:  cfg.OpenAIVisionModel,
		Logger: logger,
	})
	if err != nil {
		log.Fatalf("failed to create text extractor: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	pipeline := service.NewGradingPipeline(extractor, grader, logger)
	publisher := service.NewEventPublisher(natsConn, logger)

	authService := service.NewAuthService(userRepo, validate, cfg.JWTSecret, cfg.JWTTokenTTL, logger)
	classService := service.NewClassService(classRepo, validate, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, classRepo, submissionRepo, validate, logger)
	submissionService := service.NewSubmissionService(
		submissionRepo, assignmentRepo, classRepo,
		pipeline, storage, publisher, validate,
		cfg.GradingTimeout, cfg.SignedURLTTL, logger)
	studentDashboardService := service.NewStudentDashboardService(classRepo, assignmentRepo, submissionRepo, redisClient, cfg.DashboardCacheTTL, logger)
	teacherDashboardService := service.NewTeacherDashboardService(classRepo, assignmentRepo, submissionRepo, redisClient, cfg.DashboardCacheTTL, logger)

	authHandler := handler.NewAuthHandler(authService, logger)
	classHandler := handler.NewClassHandler(classService, logger)
	assignmentHandler := handler.NewAssignmentHandler(assignmentService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, logger)
	studentDashboardHandler := handler.NewStudentDashboardHandler(studentDashboardService, logger)
	teacherDashboardHandler := handler.NewTeacherDashboardHandler(teacherDashboardService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:             authHandler,
		ClassHandler:            classHandler,
		AssignmentHandler:       assignmentHandler,
		SubmissionHandler:       submissionHandler,
		StudentDashboardHandler: studentDashboardHandler,
		TeacherDashboardHandler: teacherDashboardHandler,
		JWTMiddleware:           middleware.JWTProtected(cfg.JWTSecret),
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
