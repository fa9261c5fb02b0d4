package handlers

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cirotrigo/studio-lagosta/internal/service"
)

// PostHandler carries the operator surface: forced analytics refresh
// and manual disambiguation of ambiguous story matches.
type PostHandler struct {
	analytics service.AnalyticsService
	verifier  service.VerificationService
	scheduler service.SchedulerService
}

func NewPostHandler(
	analytics service.AnalyticsService,
	verifier service.VerificationService,
	scheduler service.SchedulerService) *PostHandler {
	return &PostHandler{
		analytics: analytics,
		verifier:  verifier,
		scheduler: scheduler,
	}
}

// RefreshAnalytics bypasses the freshness window; the raw provider
// error surfaces to the operator on failure.
func (h *PostHandler) RefreshAnalytics(c *fiber.Ctx) error {
	postID, err := c.ParamsInt("id")
	if err != nil || postID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post id",
		})
	}

	snapshot, err := h.analytics.ForceRefresh(c.Context(), int64(postID))
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(snapshot)
}

func (h *PostHandler) VerificationCandidates(c *fiber.Ctx) error {
	postID, err := c.ParamsInt("id")
	if err != nil || postID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post id",
		})
	}

	candidates, err := h.verifier.Candidates(c.Context(), int64(postID), time.Now())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"candidates": candidates})
}

func (h *PostHandler) ResolveVerification(c *fiber.Ctx) error {
	postID, err := c.ParamsInt("id")
	if err != nil || postID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post id",
		})
	}

	var body struct {
		StoryEventID int64 `json:"story_event_id"`
	}
	if err := c.BodyParser(&body); err != nil || body.StoryEventID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "story_event_id is required",
		})
	}

	if err := h.verifier.Resolve(c.Context(), int64(postID), body.StoryEventID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	slog.Info("ambiguous match resolved",
		"post_id", postID, "story_event_id", body.StoryEventID, "user_id", GetUserID(c))
	return c.SendStatus(fiber.StatusOK)
}

func (h *PostHandler) UpcomingCount(c *fiber.Ctx) error {
	count, err := h.scheduler.UpcomingCount(c.Context(), time.Now())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to count upcoming posts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"upcoming": count})
}
