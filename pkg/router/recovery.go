package router

import (
	"fmt"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"

	"github.com/gdbrns/go-whatsapp-number-bot/pkg/log"
)

// RecoveryMiddleware turns a panicking handler into a 500 envelope. The panic value and
// stack go to the log only. Register it right after HttpRequestID.
func RecoveryMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Print(c).
					WithField("panic", fmt.Sprintf("%v", rec)).
					WithField("stack", string(debug.Stack())).
					Error("Handler panicked")
				err = ResponseError(c, fiber.StatusInternalServerError, "Internal server error", requestMeta(c))
			}
		}()
		return c.Next()
	}
}
