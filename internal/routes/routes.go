package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/selimdoruk/account-backend/internal/config"
	"github.com/selimdoruk/account-backend/internal/handlers"
	"github.com/selimdoruk/account-backend/internal/middleware"
	"github.com/selimdoruk/account-backend/internal/ws"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	userHandler *handlers.UserHandler,
	healthHandler *handlers.HealthHandler,
	hub *ws.Hub,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Credential-bearing endpoints get a stricter 10 req/min limit.
	authLimiter := limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})

	jwtMW := middleware.JWTProtected(cfg)
	authMW := middleware.AuthRequired(db, cfg)

	users := api.Group("/users")

	// Public account lifecycle
	users.Post("/create", authLimiter, userHandler.Register)
	users.Post("/resend-otp", authLimiter, userHandler.ResendOtp)
	users.Post("/verify", authLimiter, userHandler.VerifyOtp)
	users.Post("/login", authLimiter, userHandler.Login)
	users.Post("/forgot-password", authLimiter, userHandler.ForgotPassword)
	users.Post("/forgot-password/verify-otp", authLimiter, userHandler.VerifyForgotPasswordOtp)
	users.Post("/reset-password", authLimiter, userHandler.ResetPassword)

	// Authenticated
	users.Get("/profile", jwtMW, authMW, userHandler.Profile)
	users.Put("/profile", jwtMW, authMW, userHandler.UpdateProfile)
	users.Post("/change-password", jwtMW, authMW, userHandler.ChangePassword)
	users.Get("/logout", jwtMW, authMW, userHandler.Logout)
	api.Delete("/users", jwtMW, authMW, userHandler.DeleteAccount)

	// Admin listing
	api.Get("/users", jwtMW, authMW, middleware.AdminRequired(), userHandler.List)

	// Realtime notifications; the handshake is guarded like any request.
	api.Get("/ws", ws.UpgradeGate(), jwtMW, authMW, ws.Handler(hub))
}
