package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/selimdoruk/account-backend/internal/dto"
	"github.com/selimdoruk/account-backend/internal/models"
)

// AdminRequired runs after AuthRequired. Roles are matched exhaustively:
// an unknown role is never a grant.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return unauthorized(c, "Unauthorized")
		}

		switch user.Role {
		case models.RoleAdmin:
			return c.Next()
		case models.RoleUser:
			return forbidden(c)
		default:
			return forbidden(c)
		}
	}
}

func forbidden(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(dto.Envelope{
		StatusCode: fiber.StatusForbidden,
		APIVer:     dto.APIVersion,
		Message:    "Admin access required",
	})
}
