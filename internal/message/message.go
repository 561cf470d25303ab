package message

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	ctlNumber "github.com/gdbrns/go-whatsapp-number-bot/internal/number"
	"github.com/gdbrns/go-whatsapp-number-bot/internal/notify"
	"github.com/gdbrns/go-whatsapp-number-bot/internal/service"
	typWhatsApp "github.com/gdbrns/go-whatsapp-number-bot/internal/types"
	"github.com/gdbrns/go-whatsapp-number-bot/pkg/log"
	pkgNumber "github.com/gdbrns/go-whatsapp-number-bot/pkg/number"
	"github.com/gdbrns/go-whatsapp-number-bot/pkg/queue"
	"github.com/gdbrns/go-whatsapp-number-bot/pkg/router"
	"github.com/gdbrns/go-whatsapp-number-bot/pkg/validation"
	pkgWhatsApp "github.com/gdbrns/go-whatsapp-number-bot/pkg/whatsapp"
)

type Controller struct {
	svc *service.Service
}

func New(svc *service.Service) *Controller {
	return &Controller{svc: svc}
}

// Send
// @Summary     Send a text message, optionally validating the number first
// @Tags        Message
// @Accept      json
// @Produce     json
// @Param       body body typWhatsApp.RequestSendMessage true "Recipient and text"
// @Success     200
// @Failure     400,404,422,500,503
// @Router      /send-message [post]
func (ctl *Controller) Send(c *fiber.Ctx) error {
	requestID := router.RequestID(c)
	meta := fiber.Map{"request_id": requestID}
	start := time.Now()

	if !ctl.svc.Session.IsReady() {
		return router.ResponseError(c, fiber.StatusServiceUnavailable, ctlNumber.MessageNotReady, meta)
	}

	var req typWhatsApp.RequestSendMessage
	if err := c.BodyParser(&req); err != nil {
		return router.ResponseError(c, fiber.StatusBadRequest, "Failed parse body request", meta)
	}
	if err := validation.ValidateNumero(req.Numero.String()); err != nil {
		return router.ResponseError(c, fiber.StatusBadRequest, err.Error(), meta)
	}
	if err := validation.ValidateMensagem(req.Mensagem); err != nil {
		return router.ResponseError(c, fiber.StatusBadRequest, err.Error(), meta)
	}

	raw := req.Numero.String()
	meta["numero"] = raw
	entry := log.Print(c).WithField("numero", log.MaskPhone(raw)).WithField("validar", bool(req.Validar))

	ctx := c.UserContext()
	var recipient string
	if req.Validar {
		identifier, err := ctl.svc.Normalizer.Normalize(ctx, raw)
		if err != nil {
			code, _, _ := ctlNumber.Classify(err)
			ctl.failed(requestID, raw, err)
			entry.WithError(err).Warn("Recipient validation failed")
			return router.ResponseError(c, code, err.Error(), meta)
		}
		recipient = identifier
		meta["numero_validado"] = identifier
	} else {
		recipient = ctl.recipient(raw)
	}

	msg, err := queue.Do(ctx, ctl.svc.Queue, func(ctx context.Context) (pkgNumber.Message, error) {
		return ctl.svc.Session.SendMessage(ctx, recipient, req.Mensagem)
	})
	duration := time.Since(start).Round(time.Millisecond).String()
	meta["duration"] = duration
	if err != nil {
		ctl.failed(requestID, raw, err)
		entry.WithError(err).Error("Failed to send message")
		return router.ResponseError(c, sendErrorStatus(err), err.Error(), meta)
	}

	data := fiber.Map{
		"numero":     raw,
		"recipient":  recipient,
		"message_id": msg.ID,
		"request_id": requestID,
		"duration":   duration,
	}
	if req.Validar {
		data["numero_validado"] = recipient
	}
	ctl.svc.Dispatch(notify.Event{
		EventType: notify.EventMessageSent,
		RequestID: requestID,
		Data:      data,
	})
	entry.WithField("message_id", msg.ID).Info("Message sent")
	return router.ResponseSuccessWithData(c, "Message sent successfully", data)
}

// recipient builds the chat identifier for an unvalidated number. Full identifiers pass through.
func (ctl *Controller) recipient(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, "@") {
		return raw
	}
	return pkgNumber.Identifier(pkgNumber.Clean(raw), ctl.svc.Normalizer.Config().Suffix)
}

func (ctl *Controller) failed(requestID string, raw string, err error) {
	ctl.svc.Dispatch(notify.Event{
		EventType: notify.EventMessageFailed,
		RequestID: requestID,
		Data:      fiber.Map{"numero": raw, "error": err.Error()},
	})
}

func sendErrorStatus(err error) int {
	switch {
	case errors.Is(err, pkgWhatsApp.ErrInvalidJID):
		return fiber.StatusBadRequest
	case errors.Is(err, pkgWhatsApp.ErrNotReady), errors.Is(err, queue.ErrQueueFull), errors.Is(err, queue.ErrQueueClosed):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}
