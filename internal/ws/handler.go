package ws

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/selimdoruk/account-backend/internal/middleware"
	"github.com/selimdoruk/account-backend/internal/models"
)

// UpgradeGate rejects plain HTTP requests to the socket route before the
// auth middleware runs.
func UpgradeGate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

// Handler upgrades an already-authenticated request and parks the connection
// in the hub until the client goes away. Inbound frames are discarded; the
// socket is a one-way notification channel.
func Handler(hub *Hub) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		user, ok := conn.Locals(middleware.UserContextKey).(*models.User)
		if !ok || user == nil {
			_ = conn.Close()
			return
		}

		hub.Add(user.ID, conn)
		defer hub.Remove(user.ID, conn)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}
