package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// SessionIDHeader scopes the template catalog to one dashboard session.
const SessionIDHeader = "X-Session-ID"

const (
	sessionKey      = "session_id"
	maxSessionIDLen = 128
)

// SessionMiddleware reads the session header, issuing a fresh id when it is
// missing or malformed. The id is echoed on the response.
func SessionMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := strings.TrimSpace(c.Get(SessionIDHeader))
		if !validSessionID(sessionID) {
			sessionID = uuid.NewString()
		}
		c.Locals(sessionKey, sessionID)
		c.Set(SessionIDHeader, sessionID)
		return c.Next()
	}
}

// SessionIDFromContext returns the session id set by SessionMiddleware.
func SessionIDFromContext(c *fiber.Ctx) string {
	id, _ := c.Locals(sessionKey).(string)
	return id
}

func validSessionID(id string) bool {
	if id == "" || len(id) > maxSessionIDLen {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.', r == ':':
		default:
			return false
		}
	}
	return true
}
