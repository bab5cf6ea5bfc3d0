package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/imagenwiz/backend/internal/dto"
	"github.com/imagenwiz/backend/internal/models"
	"gorm.io/gorm"
)

// AdminRequired verifies the admin role against the database rather than
// trusting the token alone, so a revoked admin loses access as soon as the
// row changes.
func AdminRequired(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := GetUserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		var user models.User
		if err := db.First(&user, "id = ?", userID).Error; err == nil && user.IsAdmin() {
			return c.Next()
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Admin access required",
		})
	}
}
