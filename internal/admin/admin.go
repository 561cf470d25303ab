package admin

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/gdbrns/go-whatsapp-number-bot/internal/service"
	"github.com/gdbrns/go-whatsapp-number-bot/pkg/log"
	"github.com/gdbrns/go-whatsapp-number-bot/pkg/router"
)

type Controller struct {
	svc *service.Service
}

func New(svc *service.Service) *Controller {
	return &Controller{svc: svc}
}

// @Summary     Get WhatsApp Web version
// @Tags        Admin
// @Produce     json
// @Success     200
// @Router      /admin/whatsapp/version [get]
func (ctl *Controller) GetWhatsAppWebVersion(c *fiber.Ctx) error {
	if ctl.svc.Version == nil {
		return router.ResponseNotFound(c, "Version refresh is disabled")
	}
	return router.ResponseSuccessWithData(c, "", ctl.svc.Version.Status())
}

// @Summary     Refresh WhatsApp Web version
// @Tags        Admin
// @Produce     json
// @Param       force query bool false "Ignore the minimum refresh interval"
// @Success     200
// @Failure     502
// @Router      /admin/whatsapp/version/refresh [post]
func (ctl *Controller) RefreshWhatsAppWebVersion(c *fiber.Ctx) error {
	if ctl.svc.Version == nil {
		return router.ResponseNotFound(c, "Version refresh is disabled")
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 30*time.Second)
	defer cancel()

	status, refreshed, err := ctl.svc.Version.Refresh(ctx, c.QueryBool("force", false))
	if err != nil {
		return router.ResponseError(c, fiber.StatusBadGateway, "Failed to refresh WhatsApp Web version: "+err.Error(), status)
	}
	return router.ResponseSuccessWithData(c, "", fiber.Map{
		"refreshed": refreshed,
		"status":    status,
	})
}

// @Summary     Reconnect the WhatsApp session
// @Tags        Admin
// @Produce     json
// @Success     200
// @Router      /admin/reconnect [post]
func (ctl *Controller) Reconnect(c *fiber.Ctx) error {
	if err := ctl.svc.Session.Reconnect(); err != nil {
		log.Print(c).WithError(err).Error("Manual reconnect failed")
		return router.ResponseInternalError(c, "Failed to reconnect: "+err.Error())
	}
	return router.ResponseSuccessWithData(c, "Reconnect started", fiber.Map{
		"state": ctl.svc.Session.State().String(),
	})
}
