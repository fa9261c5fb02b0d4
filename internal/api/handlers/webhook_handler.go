package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/cirotrigo/studio-lagosta/internal/service"
	"github.com/cirotrigo/studio-lagosta/internal/transfer"
)

type WebhookHandler struct {
	s service.WebhookService
}

func NewWebhookHandler(s service.WebhookService) *WebhookHandler {
	return &WebhookHandler{s: s}
}

// PlatformWebhook ingests the platform's story/feed/weekly-report
// events. Malformed payloads are rejected with 400 before anything is
// applied.
func (h *WebhookHandler) PlatformWebhook(c *fiber.Ctx) error {
	var payload transfer.PlatformWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse payload",
		})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := h.s.HandlePlatformEvent(c.Context(), &payload); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to apply event",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

// TestWebhook dry-runs delivery to a URL so an operator can inspect raw
// status, body and timing without touching any post.
func (h *WebhookHandler) TestWebhook(c *fiber.Ctx) error {
	var body struct {
		URL string `json:"url"`
	}
	if err := c.BodyParser(&body); err != nil || body.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "url is required",
		})
	}

	result, err := h.s.TestWebhook(c.Context(), body.URL)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(result)
}
