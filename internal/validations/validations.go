package validations

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gdbrns/go-whatsapp-number-bot/internal/audit"
	"github.com/gdbrns/go-whatsapp-number-bot/internal/service"
	"github.com/gdbrns/go-whatsapp-number-bot/pkg/router"
)

type Controller struct {
	svc *service.Service
}

func New(svc *service.Service) *Controller {
	return &Controller{svc: svc}
}

// List returns the latest validation attempts, newest first.
func (ctl *Controller) List(c *fiber.Ctx) error {
	if ctl.svc.Audit == nil {
		return router.ResponseNotFound(c, "Validation log is disabled")
	}

	limit := c.QueryInt("limit", audit.DefaultLimit)
	if limit <= 0 {
		return router.ResponseBadRequest(c, "limit must be a positive integer")
	}

	records, err := ctl.svc.Audit.Recent(c.UserContext(), limit)
	if err != nil {
		return router.ResponseInternalError(c, "Failed to list validations: "+err.Error())
	}
	return router.ResponseSuccessWithData(c, "", records)
}
