package middleware

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	fiberLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

// Logger routes fiber's access log into zap instead of stdout.
func Logger(log *zap.Logger) fiber.Handler {
	return fiberLogger.New(fiberLogger.Config{
		Format: "${status} ${latency} ${method} ${path}",
		Output: io.Discard,
		Done: func(c *fiber.Ctx, logString []byte) {
			status := c.Response().StatusCode()
			fields := []zap.Field{
				zap.String("request_id", RequestIDFrom(c)),
				zap.Int("status", status),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
				zap.String("access", strings.TrimSpace(string(logString))),
			}
			if status >= 400 {
				log.Warn("HTTP request failed", fields...)
				return
			}
			log.Debug("HTTP request", fields...)
		},
	})
}
