package middleware

import (
	"crypto/subtle"

	"myinvestments-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// RequireAdminKey guards operator endpoints with the ?key= query parameter. An empty key
// disables the endpoint entirely.
func RequireAdminKey(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if key == "" {
			return response.Error(c, "Admin key not configured", fiber.StatusForbidden, nil)
		}
		if subtle.ConstantTimeCompare([]byte(c.Query("key")), []byte(key)) != 1 {
			return response.Error(c, "Forbidden", fiber.StatusForbidden, nil)
		}
		return c.Next()
	}
}
