package router

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-ID"
	maxRequestIDLen = 128
)

// HttpRealIP stores the client address as the remote_ip local for the request logger,
// taking the first X-Forwarded-For hop, then X-Real-IP.
func HttpRealIP() fiber.Handler {
	return func(c *fiber.Ctx) error {
		first, _, _ := strings.Cut(c.Get(fiber.HeaderXForwardedFor), ",")
		ip := strings.TrimSpace(first)
		if ip == "" {
			ip = strings.TrimSpace(c.Get("X-Real-IP"))
		}
		if ip != "" {
			c.Locals("remote_ip", ip)
		}
		return c.Next()
	}
}

// HttpRequestID reuses a sane incoming X-Request-ID or assigns a new UUID, exposing it
// as the request_id local and echoing it back.
func HttpRequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Get(HeaderRequestID))
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		c.Locals("request_id", id)
		c.Set(HeaderRequestID, id)
		return c.Next()
	}
}

func RequestID(c *fiber.Ctx) string {
	id, _ := c.Locals("request_id").(string)
	return id
}
