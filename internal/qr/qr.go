package qr

import (
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

// Get returns the pending pairing code as text and as a PNG data URL.
func (ctl *Controller) Get(c *fiber.Ctx) error {
	if ctl.svc.Session.IsReady() {
		return router.ResponseSuccessWithData(c, "WhatsApp is already connected", fiber.Map{
			"connected": true,
		})
	}

	code, expires := ctl.svc.Session.QR()
	if code == "" {
		return router.ResponseNotFound(c, "QR code not available yet, try again in a few seconds")
	}

	image, err := ctl.svc.Session.QRDataURL()
	if err != nil {
		log.Print(c).WithError(err).Error("Failed to render QR code")
		return router.ResponseInternalError(c, "Failed to render QR code")
	}

	return router.ResponseSuccessWithData(c, "Scan the QR code with WhatsApp", fiber.Map{
		"connected":  false,
		"qr":         code,
		"image":      image,
		"expires_at": expires.UTC().Format(time.RFC3339),
	})
}
