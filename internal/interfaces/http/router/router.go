package router

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"looker-content-cleanup/internal/domain/metrics"
	"looker-content-cleanup/internal/interfaces/http/handlers"
	"looker-content-cleanup/internal/interfaces/http/middleware"
	"looker-content-cleanup/pkg/constants"
)

// ErrorResponse represents a structured error response
type ErrorResponse struct {
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Path      string `json:"path"`
	RequestID string `json:"request_id,omitempty"`
}

type FiberApp struct {
	*fiber.App
}

// NewFiberApp builds the server. cleanupTimeout bounds a synchronous trigger
// and sets the write timeout.
func NewFiberApp(logger *zap.Logger, cleanupTimeout time.Duration) *FiberApp {
	app := fiber.New(fiber.Config{
		AppName:               constants.ServiceName,
		DisableStartupMessage: true,
		IdleTimeout:           60 * time.Second,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          cleanupTimeout + constants.HTTPWriteGrace,
		ServerHeader:          constants.ServiceName,
		ErrorHandler:          errorHandler(logger),
	})

	return &FiberApp{app}
}

func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, message := classify(err)

		logErr := logger.Error
		if status < http.StatusInternalServerError {
			logErr = logger.Warn
		}
		logErr("Request failed",
			zap.Error(err),
			zap.String("request_id", middleware.RequestIDFrom(c)),
			zap.String("url", c.Path()),
			zap.String("method", c.Method()),
			zap.Int("status", status),
			zap.String("ip", c.IP()))

		return c.Status(status).JSON(ErrorResponse{
			Status:    status,
			Message:   message,
			Path:      c.Path(),
			RequestID: middleware.RequestIDFrom(c),
		})
	}
}

func classify(err error) (int, string) {
	var fiberError *fiber.Error
	switch {
	case errors.As(err, &fiberError):
		return fiberError.Code, fiberError.Message
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout, "Gateway Timeout"
	case errors.Is(err, context.Canceled):
		return fiber.StatusRequestTimeout, "Request Cancelled"
	}
	return fiber.StatusInternalServerError, "Internal Server Error"
}

// RouteConfig carries what the routes need besides the handlers.
type RouteConfig struct {
	TriggerToken string
	APITimeout   time.Duration
}

func SetupRoutes(app *FiberApp, handlers *handlers.Handlers, metricsCollector metrics.MetricsCollector, cfg RouteConfig, logger *zap.Logger) {
	app.Use(middleware.RequestID())
	app.Use(middleware.Recovery(logger))
	app.Use(middleware.Logger(logger))
	app.Use(middleware.MetricsMiddleware(metricsCollector, logger))

	app.Get("/health", handlers.Health.Status)
	app.Get("/metrics", handlers.Metrics.Handle)
	app.Get("/version", handlers.Version.GetVersion)

	api := app.Group("/api/"+constants.APIVersion,
		middleware.BearerAuth(cfg.TriggerToken, logger),
		middleware.TimeoutMiddleware(cfg.APITimeout))
	setupAPIRoutes(api, handlers)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Status:    fiber.StatusNotFound,
			Message:   "Route not found",
			Path:      c.Path(),
			RequestID: middleware.RequestIDFrom(c),
		})
	})
}

func setupAPIRoutes(router fiber.Router, handlers *handlers.Handlers) {
	router.Post("/cleanup", handlers.Cleanup.TriggerCleanup)
	router.Post("/content/:kind/:id/restore", handlers.Cleanup.RestoreContent)
}
