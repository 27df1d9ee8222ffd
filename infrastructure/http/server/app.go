package server

import (
	"context"
	stderrors "errors"
	"log/slog"
	"timeline/observability"
	"timeline/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

type HealthReporter interface {
	Report(ctx context.Context) observability.HealthReport
}

// DefaultBodyLimit bounds request bodies when AppConfig.BodyLimit is not set.
const DefaultBodyLimit = 100 * 1024

type AppConfig struct {
	BodyLimit int
	// StaticDir is served under "/" when not empty.
	StaticDir string
}

// NewApp wires middlewares and routes. API routes are registered before the
// static handler so that files never shadow them.
func NewApp(cfg AppConfig, log *slog.Logger, postService services.IPostService, health HealthReporter) *fiber.App {
	bodyLimit := cfg.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = DefaultBodyLimit
	}
	app := fiber.New(fiber.Config{
		AppName:               "timeline",
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(log),
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(AccessLog(log))
	app.Use(cors.New())

	postServer := NewPostServer(log, postService)
	api := app.Group("/api")
	api.Get("/posts", postServer.ListPosts)
	api.Post("/posts", postServer.CreatePost)
	api.Get("/health", NewHealthServer(health).Health)

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}
	return app
}

// errorHandler renders every unhandled error with the same {"error": ...}
// shape as the API handlers.
func errorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var e *fiber.Error
		if stderrors.As(err, &e) {
			code = e.Code
			message = e.Message
		}
		if code >= fiber.StatusInternalServerError {
			log.Error("Unhandled error", "method", c.Method(), "path", c.Path(), "error", err)
		}
		return c.Status(code).JSON(errorResponse{Error: message})
	}
}
