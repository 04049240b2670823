package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/classhub-api/internal/config"
	"github.com/noah-isme/classhub-api/internal/handler"
	"github.com/noah-isme/classhub-api/internal/middleware"
	"github.com/noah-isme/classhub-api/internal/models"
	"github.com/noah-isme/classhub-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler             *handler.AuthHandler
	ClassHandler            *handler.ClassHandler
	AssignmentHandler       *handler.AssignmentHandler
	SubmissionHandler       *handler.SubmissionHandler
	StudentDashboardHandler *handler.StudentDashboardHandler
	TeacherDashboardHandler *handler.TeacherDashboardHandler
	JWTMiddleware           fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		auth := api.Group("/auth")
		deps.AuthHandler.RegisterPublic(auth)

		authProtected := api.Group("/auth", jwtMiddleware)
		deps.AuthHandler.RegisterProtected(authProtected)
	}

	if deps.ClassHandler != nil {
		classes := api.Group("/classes", jwtMiddleware)
		deps.ClassHandler.Register(classes)
	}

	if deps.AssignmentHandler != nil {
		assignments := api.Group("/assignments", jwtMiddleware)
		deps.AssignmentHandler.Register(assignments)
	}

	if deps.SubmissionHandler != nil {
		submissions := api.Group("/submissions", jwtMiddleware)
		deps.SubmissionHandler.Register(submissions)

		// Uploads fan out to storage and the grading pipeline, so they
		// get a tighter budget than the rest of the API.
		uploads := api.Group("/submissions", jwtMiddleware,
			middleware.RequireRole(models.RoleStudent),
			middleware.RateLimit("submission_create", 10, time.Minute))
		deps.SubmissionHandler.RegisterCreate(uploads)
	}

	if deps.StudentDashboardHandler != nil {
		studentDashboard := api.Group("/dashboard/student", jwtMiddleware,
			middleware.RequireRole(models.RoleStudent))
		deps.StudentDashboardHandler.Register(studentDashboard)
	}

	if deps.TeacherDashboardHandler != nil {
		teacherDashboard := api.Group("/dashboard/teacher", jwtMiddleware,
			middleware.RequireRole(models.RoleTeacher))
		deps.TeacherDashboardHandler.Register(teacherDashboard)
	}
}
