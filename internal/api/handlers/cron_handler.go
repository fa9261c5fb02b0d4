package handlers

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cirotrigo/studio-lagosta/internal/service"
)

// CronHandler exposes the periodic triggers as HTTP endpoints; the
// production scheduler invokes them on fixed periods.
type CronHandler struct {
	publish   service.PublishService
	reminder  service.ReminderService
	verifier  service.VerificationService
	retry     service.RetryService
	analytics service.AnalyticsService
}

func NewCronHandler(
	publish service.PublishService,
	reminder service.ReminderService,
	verifier service.VerificationService,
	retry service.RetryService,
	analytics service.AnalyticsService) *CronHandler {
	return &CronHandler{
		publish:   publish,
		reminder:  reminder,
		verifier:  verifier,
		retry:     retry,
		analytics: analytics,
	}
}

func (h *CronHandler) RunPublish(c *fiber.Ctx) error {
	dispatched, err := h.publish.DispatchDue(c.Context(), time.Now())
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Publish sweep failed",
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"dispatched": dispatched})
}

func (h *CronHandler) RunReminders(c *fiber.Ctx) error {
	report, err := h.reminder.DispatchDue(c.Context(), time.Now())
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Reminder sweep failed",
		})
	}
	return c.Status(fiber.StatusOK).JSON(report)
}

func (h *CronHandler) RunVerification(c *fiber.Ctx) error {
	report, err := h.verifier.ReconcileDue(c.Context(), time.Now())
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Verification sweep failed",
		})
	}
	return c.Status(fiber.StatusOK).JSON(report)
}

func (h *CronHandler) RunRetries(c *fiber.Ctx) error {
	report, err := h.retry.RunDue(c.Context(), time.Now())
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Retry sweep failed",
		})
	}
	return c.Status(fiber.StatusOK).JSON(report)
}

func (h *CronHandler) RunAnalytics(c *fiber.Ctx) error {
	report, err := h.analytics.SyncDue(c.Context(), time.Now())
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Analytics sweep failed",
		})
	}
	return c.Status(fiber.StatusOK).JSON(report)
}
