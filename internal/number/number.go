package number

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/gdbrns/go-whatsapp-number-bot/internal/audit"
	"github.com/gdbrns/go-whatsapp-number-bot/internal/notify"
	"github.com/gdbrns/go-whatsapp-number-bot/internal/service"
	typWhatsApp "github.com/gdbrns/go-whatsapp-number-bot/internal/types"
	"github.com/gdbrns/go-whatsapp-number-bot/pkg/log"
	pkgNumber "github.com/gdbrns/go-whatsapp-number-bot/pkg/number"
	"github.com/gdbrns/go-whatsapp-number-bot/pkg/queue"
	"github.com/gdbrns/go-whatsapp-number-bot/pkg/router"
	"github.com/gdbrns/go-whatsapp-number-bot/pkg/validation"
)

const (
	OutcomeValidated    = "validated"
	OutcomeNotFound     = "not_found"
	OutcomeUnrecognized = "unrecognized"
	OutcomeFailed       = "failed"
)

const MessageNotReady = "WhatsApp is not ready"

type Controller struct {
	svc *service.Service
}

func New(svc *service.Service) *Controller {
	return &Controller{svc: svc}
}

// Validate
// @Summary     Resolve a Brazilian phone number to its WhatsApp identifier
// @Tags        Number
// @Accept      json
// @Produce     json
// @Param       body body typWhatsApp.RequestValidateNumber true "Phone number"
// @Success     200
// @Failure     400,404,422,500,503
// @Router      /validate-number [post]
func (ctl *Controller) Validate(c *fiber.Ctx) error {
	requestID := router.RequestID(c)
	meta := fiber.Map{"request_id": requestID}

	if !ctl.svc.Session.IsReady() {
		return router.ResponseError(c, fiber.StatusServiceUnavailable, MessageNotReady, meta)
	}

	var req typWhatsApp.RequestValidateNumber
	if err := c.BodyParser(&req); err != nil {
		return router.ResponseError(c, fiber.StatusBadRequest, "Failed parse body request", meta)
	}
	if err := validation.ValidateNumero(req.Numero.String()); err != nil {
		return router.ResponseError(c, fiber.StatusBadRequest, err.Error(), meta)
	}

	raw := req.Numero.String()
	meta["numero_original"] = raw

	start := time.Now()
	identifier, err := ctl.svc.Normalizer.Normalize(c.UserContext(), raw)
	elapsed := time.Since(start)

	record := audit.Record{
		RequestID:  requestID,
		RawInput:   raw,
		Identifier: identifier,
		DurationMS: elapsed.Milliseconds(),
	}
	if err != nil {
		code, outcome, event := Classify(err)
		record.Outcome = outcome
		record.Error = err.Error()
		ctl.svc.Record(c.UserContext(), record)
		ctl.svc.Dispatch(notify.Event{
			EventType: event,
			RequestID: requestID,
			Data:      fiber.Map{"numero_original": raw, "error": err.Error()},
		})
		log.Print(c).WithField("raw", log.MaskPhone(raw)).WithError(err).Warn("Number validation failed")
		return router.ResponseError(c, code, err.Error(), meta)
	}

	record.Outcome = OutcomeValidated
	ctl.svc.Record(c.UserContext(), record)

	data := fiber.Map{
		"numero_original": raw,
		"numero_validado": identifier,
		"display":         pkgNumber.Display(identifier),
		"request_id":      requestID,
		"duration":        elapsed.Round(time.Millisecond).String(),
	}
	ctl.svc.Dispatch(notify.Event{
		EventType: notify.EventNumberValidated,
		RequestID: requestID,
		Data:      data,
	})
	return router.ResponseSuccessWithData(c, "Number validated successfully", data)
}

// Classify maps a normalization error to its HTTP status, audit outcome and callback event.
func Classify(err error) (int, string, notify.EventType) {
	switch {
	case errors.Is(err, pkgNumber.ErrUnrecognizedFormat):
		return fiber.StatusUnprocessableEntity, OutcomeUnrecognized, notify.EventNumberUnrecognized
	case errors.Is(err, pkgNumber.ErrNumberNotFound):
		return fiber.StatusNotFound, OutcomeNotFound, notify.EventNumberNotFound
	case errors.Is(err, queue.ErrQueueFull), errors.Is(err, queue.ErrQueueClosed):
		return fiber.StatusServiceUnavailable, OutcomeFailed, notify.EventNumberFailed
	}
	return fiber.StatusInternalServerError, OutcomeFailed, notify.EventNumberFailed
}
