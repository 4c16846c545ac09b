package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/selimdoruk/account-backend/internal/models"
)

// UserContextKey is where AuthRequired stores the resolved user. The
// websocket handler reads it through conn.Locals, hence the export.
const UserContextKey = "auth_user"

const ctxTZKey = "tz"

// CurrentUser returns the user attached by AuthRequired, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	if user, ok := c.Locals(UserContextKey).(*models.User); ok {
		return user
	}
	return nil
}

// Timezone returns the location resolved from the x-timezone header,
// defaulting to UTC.
func Timezone(c *fiber.Ctx) *time.Location {
	if loc, ok := c.Locals(ctxTZKey).(*time.Location); ok {
		return loc
	}
	return time.UTC
}

// TimezoneMiddleware parses the x-timezone header once per request. An
// unknown zone silently falls back to UTC; dates in responses are the only
// thing it affects.
func TimezoneMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if name := c.Get("x-timezone"); name != "" {
			if loc, err := time.LoadLocation(name); err == nil {
				c.Locals(ctxTZKey, loc)
			}
		}
		return c.Next()
	}
}
