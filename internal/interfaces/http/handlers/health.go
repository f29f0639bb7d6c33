package handlers

import (
	"runtime"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"looker-content-cleanup/internal/usecases/cleanup"
)

type HealthHandler struct {
	cleanupUseCase cleanup.CleanupUseCase
	logger         *zap.Logger
	startTime      time.Time
}

func NewHealthHandler(cleanupUseCase cleanup.CleanupUseCase, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		cleanupUseCase: cleanupUseCase,
		logger:         logger,
		startTime:      time.Now(),
	}
}

// Status answers 200 while the process serves requests. A failed last run
// is reported in the body but does not make the service unhealthy.
func (h *HealthHandler) Status(c *fiber.Ctx) error {
	h.logger.Debug("Health check requested",
		zap.String("ip", c.IP()),
		zap.String("user_agent", c.Get(fiber.HeaderUserAgent)))

	return c.JSON(fiber.Map{
		"status":     "ok",
		"uptime":     time.Since(h.startTime).Round(time.Second).String(),
		"timestamp":  time.Now().Format(time.RFC3339),
		"cleanup":    h.cleanupUseCase.Status(),
		"goroutines": runtime.NumGoroutine(),
	})
}
