package api

import "github.com/gofiber/fiber/v2"

// Envelope is the body of every response.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func respond(c *fiber.Ctx, status int, data any, message string) error {
	return c.Status(status).JSON(Envelope{
		Success: true,
		Data:    data,
		Message: message,
	})
}

func reject(c *fiber.Ctx, status int, errMsg string) error {
	return c.Status(status).JSON(Envelope{
		Success: false,
		Error:   errMsg,
	})
}
