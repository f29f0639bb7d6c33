package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/keyauth"
	"go.uber.org/zap"
)

// BearerAuth guards trigger endpoints with a static token. An empty token
// disables the check.
func BearerAuth(token string, log *zap.Logger) fiber.Handler {
	expected := []byte(token)
	return keyauth.New(keyauth.Config{
		Next: func(c *fiber.Ctx) bool {
			return token == ""
		},
		KeyLookup:  "header:" + fiber.HeaderAuthorization,
		AuthScheme: "Bearer",
		Validator: func(c *fiber.Ctx, key string) (bool, error) {
			if subtle.ConstantTimeCompare([]byte(key), expected) == 1 {
				return true, nil
			}
			return false, keyauth.ErrMissingOrMalformedAPIKey
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Warn("Rejected unauthenticated request",
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
				zap.Error(err))
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
		},
	})
}
