package middleware

import (
	"crypto/subtle"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	config "github.com/cirotrigo/studio-lagosta/configs"
	"github.com/cirotrigo/studio-lagosta/pkg/utils"
)

type AuthMiddleware struct {
	cfg config.Config
}

func NewAuthMiddleware(cfg config.Config) *AuthMiddleware {
	return &AuthMiddleware{cfg: cfg}
}

// CronAuth guards the periodic trigger endpoints with a bearer-token
// shared secret. A request without the matching token is rejected
// before any work occurs.
func (m *AuthMiddleware) CronAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || m.cfg.CronSecret == "" ||
			subtle.ConstantTimeCompare([]byte(token), []byte(m.cfg.CronSecret)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or missing trigger token",
			})
		}
		return c.Next()
	}
}

// WebhookAuth guards the inbound platform feed with a static
// shared-secret header.
func (m *AuthMiddleware) WebhookAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		secret := c.Get("X-Webhook-Secret")
		if secret == "" || m.cfg.WebhookSecret == "" ||
			subtle.ConstantTimeCompare([]byte(secret), []byte(m.cfg.WebhookSecret)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or missing webhook secret",
			})
		}
		return c.Next()
	}
}

// OperatorAuth validates the operator session token on the manual
// force/resolve endpoints.
func (m *AuthMiddleware) OperatorAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := c.Cookies(m.cfg.CookieName)
		if tokenString == "" {
			header := c.Get("Authorization")
			tokenString, _ = strings.CutPrefix(header, "Bearer ")
		}

		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing session token",
			})
		}

		claims, err := utils.ValidateToken(m.cfg.SecretKey, tokenString)
		if err != nil {
			c.Cookie(&fiber.Cookie{
				Name:   m.cfg.CookieName,
				Value:  "",
				Path:   "/",
				MaxAge: -1, // Delete cookie
			})

			log.Printf("Token validation failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("user_id", claims.UserID)
		return c.Next()
	}
}
