package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/selimdoruk/account-backend/internal/dto"
)

func respond(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(dto.Envelope{
		StatusCode: status,
		APIVer:     dto.APIVersion,
		Message:    message,
		Data:       data,
	})
}

func respondErr(c *fiber.Ctx, status int, message string) error {
	return respond(c, status, message, nil)
}
