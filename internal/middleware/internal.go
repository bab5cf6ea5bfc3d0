package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/imagenwiz/backend/internal/config"
	"github.com/imagenwiz/backend/internal/dto"
)

// InternalOnly guards the processing backend's callback routes with a
// shared token, compared in constant time. With no token configured the
// routes are unreachable rather than open.
func InternalOnly(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.InternalToken == "" {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Not found",
			})
		}

		token := c.Get("X-Internal-Token")
		if subtle.ConstantTimeCompare([]byte(token), []byte(cfg.InternalToken)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		return c.Next()
	}
}
