package index

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/gdbrns/go-whatsapp-number-bot/internal/service"
	"github.com/gdbrns/go-whatsapp-number-bot/pkg/router"
)

type Controller struct {
	svc *service.Service
}

func New(svc *service.Service) *Controller {
	return &Controller{svc: svc}
}

func (ctl *Controller) status() fiber.Map {
	return fiber.Map{
		"state":          ctl.svc.Session.State().String(),
		"whatsapp_ready": ctl.svc.Session.IsReady(),
		"queue_size":     ctl.svc.Queue.Len(),
		"processing":     ctl.svc.Queue.Processing(),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	}
}

// Index
// @Summary     Show service info, queue stats and endpoints
// @Tags        Root
// @Produce     json
// @Success     200
// @Router      / [get]
func (ctl *Controller) Index(c *fiber.Ctx) error {
	data := ctl.status()
	data["endpoints"] = fiber.Map{
		"status":          "GET " + router.BaseURL + "/status",
		"health":          "GET " + router.BaseURL + "/health",
		"qr":              "GET " + router.BaseURL + "/qr",
		"validate_number": "POST " + router.BaseURL + "/validate-number",
		"send_message":    "POST " + router.BaseURL + "/send-message",
		"validations":     "GET " + router.BaseURL + "/validations",
	}
	return router.ResponseSuccessWithData(c, "WhatsApp number bot is running", data)
}

func (ctl *Controller) Status(c *fiber.Ctx) error {
	return router.ResponseSuccessWithData(c, "", ctl.status())
}

// Health always answers 200 while the process serves HTTP; readiness is reported, not enforced.
func (ctl *Controller) Health(c *fiber.Ctx) error {
	return router.ResponseSuccessWithData(c, "", fiber.Map{
		"status":         "healthy",
		"uptime":         ctl.svc.Uptime().Seconds(),
		"whatsapp_ready": ctl.svc.Session.IsReady(),
	})
}
