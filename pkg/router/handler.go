package router

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// HttpErrorHandler renders errors that escape the handlers, fiber's own included (404 on
// unknown routes, 413 on oversized bodies), with the standard envelope.
func HttpErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}
	return ResponseError(c, code, err.Error(), requestMeta(c))
}

func requestMeta(c *fiber.Ctx) fiber.Map {
	if id := RequestID(c); id != "" {
		return fiber.Map{"request_id": id}
	}
	return nil
}
