package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/gdbrns/go-whatsapp-number-bot/pkg/log"
)

// Response is the envelope of every JSON reply. On failure Message and Error carry the
// same text and Data, when present, holds request context such as request_id.
type Response struct {
	Status  bool        `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func respond(c *fiber.Ctx, code int, message string, data interface{}) error {
	if strings.TrimSpace(message) == "" {
		message = http.StatusText(code)
	}
	response := Response{
		Status:  code < http.StatusBadRequest,
		Code:    code,
		Message: message,
		Data:    data,
	}
	if !response.Status {
		response.Error = message
	}

	logResponse(c, code, message)
	return c.Status(code).JSON(response)
}

func logResponse(c *fiber.Ctx, code int, message string) {
	entry := log.Print(c).WithField("status", code)
	line := fmt.Sprintf("%d %v", code, message)

	switch {
	case code >= http.StatusInternalServerError:
		entry.Error(line)
	case code >= http.StatusBadRequest:
		entry.Warn(line)
	case c.OriginalURL() == BaseURL+"/health" || c.OriginalURL() == BaseURL+"/status":
		entry.Debug(line)
	default:
		entry.Info(line)
	}
}

func ResponseSuccessWithData(c *fiber.Ctx, message string, data interface{}) error {
	return respond(c, http.StatusOK, message, data)
}

// ResponseError writes a failure envelope with the given status.
func ResponseError(c *fiber.Ctx, code int, message string, data interface{}) error {
	return respond(c, code, message, data)
}

func ResponseNotFound(c *fiber.Ctx, message string) error {
	return respond(c, http.StatusNotFound, message, nil)
}

func ResponseUnauthorized(c *fiber.Ctx, message string) error {
	return respond(c, http.StatusUnauthorized, message, nil)
}

func ResponseBadRequest(c *fiber.Ctx, message string) error {
	return respond(c, http.StatusBadRequest, message, nil)
}

func ResponseInternalError(c *fiber.Ctx, message string) error {
	return respond(c, http.StatusInternalServerError, message, nil)
}
