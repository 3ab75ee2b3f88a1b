package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// WebhookHandler is a demonstration receiver for outcome notifications.
type WebhookHandler struct {
	logger *zap.Logger
}

// NewWebhookHandler constructs handler.
func NewWebhookHandler(logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{logger: logger}
}

// Receive POST /webhook. Logs the payload and discards it.
func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	var payload map[string]any
	if err := c.BodyParser(&payload); err != nil || len(payload) == 0 {
		return c.SendStatus(fiber.StatusOK)
	}

	h.logger.Info("received webhook payload", zap.Any("payload", payload))
	return c.SendStatus(fiber.StatusOK)
}
