package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"looker-content-cleanup/internal/domain/models"
	"looker-content-cleanup/internal/usecases/cleanup"
)

type CleanupHandler struct {
	cleanupUseCase cleanup.CleanupUseCase
	logger         *zap.Logger
}

func NewCleanupHandler(cleanupUseCase cleanup.CleanupUseCase, logger *zap.Logger) *CleanupHandler {
	return &CleanupHandler{
		cleanupUseCase: cleanupUseCase,
		logger:         logger,
	}
}

// RunSummary is the trigger response body.
type RunSummary struct {
	Status           string            `json:"status"`
	Error            string            `json:"error,omitempty"`
	Result           *models.RunResult `json:"result,omitempty"`
	SoftDeleted      int               `json:"soft_deleted"`
	SoftDeleteFailed int               `json:"soft_delete_failed"`
	HardDeleted      int               `json:"hard_deleted"`
	HardDeleteFailed int               `json:"hard_delete_failed"`
}

func summarize(status string, result *models.RunResult, err error) RunSummary {
	summary := RunSummary{Status: status, Result: result}
	if err != nil {
		summary.Error = err.Error()
	}
	if result != nil {
		summary.SoftDeleted = len(result.Succeeded(models.TransitionSoftDelete))
		summary.SoftDeleteFailed = len(result.Failed(models.TransitionSoftDelete))
		summary.HardDeleted = len(result.Succeeded(models.TransitionHardDelete))
		summary.HardDeleteFailed = len(result.Failed(models.TransitionHardDelete))
	}
	return summary
}

// TriggerCleanup runs one cleanup synchronously. Item failures still answer
// 200; only a fatal error answers 500.
func (h *CleanupHandler) TriggerCleanup(c *fiber.Ctx) error {
	h.logger.Info("Cleanup API endpoint called",
		zap.String("ip", c.IP()),
		zap.String("method", c.Method()))

	result, err := h.cleanupUseCase.Run(c.UserContext())
	switch {
	case errors.Is(err, models.ErrRunInProgress):
		return c.Status(fiber.StatusConflict).JSON(summarize("busy", nil, err))
	case err != nil:
		h.logger.Error("API-triggered cleanup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(summarize("failed", result, err))
	}

	return c.Status(fiber.StatusOK).JSON(summarize("ok", result, nil))
}

// RestoreContent takes a dashboard or Look out of the trash.
func (h *CleanupHandler) RestoreContent(c *fiber.Ctx) error {
	kind, err := models.ParseKind(c.Params("kind"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	id := c.Params("id")
	if id == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing content id")
	}

	h.logger.Info("Restore API endpoint called",
		zap.String("ip", c.IP()),
		zap.String("kind", string(kind)),
		zap.String("id", id))

	if err := h.cleanupUseCase.Restore(c.UserContext(), kind, id); err != nil {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}

	return c.JSON(fiber.Map{
		"status": "restored",
		"kind":   kind,
		"id":     id,
		"time":   time.Now().Format(time.RFC3339),
	})
}
