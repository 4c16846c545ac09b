package middleware

import (
	"fmt"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/selimdoruk/account-backend/internal/config"
	"github.com/selimdoruk/account-backend/internal/dto"
	"github.com/selimdoruk/account-backend/internal/models"
	"gorm.io/gorm"
)

// JWTProtected validates the token signature and expiry. The query-param
// fallback exists for websocket handshakes, which cannot always set headers.
func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:  jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		TokenLookup: "header:Authorization,query:token",
		AuthScheme:  "Bearer",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return unauthorized(c, "Unauthorized: invalid or expired token")
		},
	})
}

// AuthRequired runs after JWTProtected. It re-fetches the user and enforces
// the stored-token comparison that makes logout and re-login invalidate
// older tokens even though those tokens are still cryptographically valid.
// Soft-deleted users are invisible to the lookup and fail here.
func AuthRequired(db *gorm.DB, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tok, ok := c.Locals("user").(*jwt.Token)
		if !ok || tok == nil {
			return unauthorized(c, "Unauthorized")
		}

		claims, ok := tok.Claims.(jwt.MapClaims)
		if !ok {
			return unauthorized(c, "Unauthorized")
		}
		sub, _ := claims["sub"].(string)
		userID, err := uuid.Parse(sub)
		if err != nil {
			return unauthorized(c, "Unauthorized")
		}

		var user models.User
		if err := db.First(&user, "id = ?", userID).Error; err != nil {
			return unauthorized(c, "Unauthorized")
		}

		if user.AuthToken == "" || user.AuthToken != tok.Raw {
			return unauthorized(c, "Session expired, please log in again")
		}

		if user.Status != models.StatusActive {
			return unauthorized(c, fmt.Sprintf(
				"Your account is %s. Please contact %s for assistance.",
				user.Status, cfg.SupportEmail,
			))
		}

		c.Locals(UserContextKey, &user)
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.Envelope{
		StatusCode: fiber.StatusUnauthorized,
		APIVer:     dto.APIVersion,
		Message:    message,
	})
}
