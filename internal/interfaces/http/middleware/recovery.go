package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// Recovery turns a handler panic into a 500 through the app error handler.
func Recovery(log *zap.Logger) fiber.Handler {
	return recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			log.Error("Panic recovered in handler",
				zap.Any("panic", e),
				zap.String("request_id", RequestIDFrom(c)),
				zap.String("route", c.Route().Path),
				zap.String("method", c.Method()),
				zap.Stack("stack"))
		},
	})
}
