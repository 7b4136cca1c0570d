package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/quizzq/quizzq-api/internal/config"
	"github.com/quizzq/quizzq-api/internal/handler"
	"github.com/quizzq/quizzq-api/internal/middleware"
	"github.com/quizzq/quizzq-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssignmentHandler        *handler.AssignmentHandler
	SubmissionHandler        *handler.SubmissionHandler
	TeacherAssignmentHandler *handler.TeacherAssignmentHandler
	ReviewHandler            *handler.ReviewHandler
	ProgressHandler          *handler.ProgressHandler
	JWTMiddleware            fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Student-facing assignments and submissions
	if deps.AssignmentHandler != nil {
		assignments := api.Group("/assignments", jwtMiddleware)
		deps.AssignmentHandler.Register(assignments)

		if deps.SubmissionHandler != nil {
			rateLimit := middleware.RateLimit("submit", cfg.SubmitRateLimit, cfg.SubmitRateWindow)
			deps.SubmissionHandler.Register(assignments, rateLimit)
		}
	}

	// Teacher authoring and review
	if deps.TeacherAssignmentHandler != nil {
		teacher := api.Group("/teacher", jwtMiddleware, middleware.RequireRole(cfg.TeacherRoles...))

		assignmentGroup := teacher.Group("/assignments")
		deps.TeacherAssignmentHandler.Register(assignmentGroup)

		if deps.ReviewHandler != nil {
			submissionGroup := teacher.Group("/submissions")
			deps.ReviewHandler.Register(submissionGroup)
		}
	}

	// Student progress
	if deps.ProgressHandler != nil {
		student := api.Group("/student", jwtMiddleware)
		deps.ProgressHandler.Register(student)
	}
}
