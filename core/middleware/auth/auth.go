package auth

import (
	"github.com/gofiber/fiber/v2"
)

const (
	HeaderAPIKey = "X-Bugzilla-API-Key"
	HeaderToken  = "X-Bugzilla-Token"
)

// Config configures the auth middleware.
type Config struct {
	// ApiKey is accepted in X-Bugzilla-API-Key. Empty disables key auth.
	ApiKey string
	// ValidToken reports whether a X-Bugzilla-Token value is a live session.
	ValidToken func(token string) bool
	// Denied renders the rejection. Defaults to a bare 401.
	Denied fiber.Handler
}

// New returns a middleware that lets a request through when it carries the
// API key or a valid session token.
func New(cfg Config) fiber.Handler {
	denied := cfg.Denied
	if denied == nil {
		denied = func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
	}
	return func(c *fiber.Ctx) error {
		if key := c.Get(HeaderAPIKey); cfg.ApiKey != "" && key == cfg.ApiKey {
			return c.Next()
		}
		if token := c.Get(HeaderToken); token != "" && cfg.ValidToken != nil && cfg.ValidToken(token) {
			return c.Next()
		}
		return denied(c)
	}
}
