// internal/interfaces/http/middleware/metrics.go
package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"looker-content-cleanup/internal/domain/metrics"
)

var errorTypes = map[int]string{
	fiber.StatusInternalServerError: "internal_server_error",
	fiber.StatusBadGateway:          "bad_gateway",
	fiber.StatusServiceUnavailable:  "service_unavailable",
	fiber.StatusGatewayTimeout:      "gateway_timeout",
}

func MetricsMiddleware(metricsCollector metrics.MetricsCollector, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routeLabel(c)
		method := c.Method()
		status := responseStatus(c, err)

		metricsCollector.IncHttpRequests(path, method, status)
		if status == fiber.StatusRequestTimeout {
			metricsCollector.IncHttpTimeout(path, method)
		}
		if status >= fiber.StatusInternalServerError {
			errorType, ok := errorTypes[status]
			if !ok {
				errorType = "server_error"
			}
			metricsCollector.IncHttpError(path, method, status, errorType)
		}

		logger.Debug("Request processed",
			zap.String("route", path),
			zap.String("method", method),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)))

		return err
	}
}

// routeLabel keeps content ids out of the metric labels by using the
// matched route pattern.
func routeLabel(c *fiber.Ctx) string {
	if path := c.Route().Path; path != "" && path != "/" {
		return path
	}
	return "unmatched"
}

// responseStatus predicts the status the error handler will write for err.
func responseStatus(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}
	return fiber.StatusInternalServerError
}
