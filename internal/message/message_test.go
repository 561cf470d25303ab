package message

import (
	"errors"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdbrns/go-whatsapp-number-bot/internal/service/servicetest"
	pkgNumber "github.com/gdbrns/go-whatsapp-number-bot/pkg/number"
	"github.com/gdbrns/go-whatsapp-number-bot/pkg/queue"
	pkgWhatsApp "github.com/gdbrns/go-whatsapp-number-bot/pkg/whatsapp"
)

func newApp(t *testing.T, session *servicetest.Session, normalizer *servicetest.Normalizer) *fiber.App {
	t.Helper()
	app := servicetest.App()
	app.Post("/send-message", New(servicetest.New(t, session, normalizer)).Send)
	return app
}

func TestSendWithoutValidation(t *testing.T) {
	session := &servicetest.Session{Ready: true}
	normalizer := &servicetest.Normalizer{}
	app := newApp(t, session, normalizer)

	code, resp := servicetest.Call(t, app, fiber.MethodPost, "/send-message", `{"numero":"(31) 99762-9068","mensagem":"Olá!"}`)
	require.Equal(t, fiber.StatusOK, code)

	data := servicetest.Data(t, resp)
	assert.Equal(t, "31997629068@s.whatsapp.net", data["recipient"])
	assert.Equal(t, "3EB0TEST", data["message_id"])
	assert.NotContains(t, data, "numero_validado")
	assert.Zero(t, normalizer.CallCount())
	assert.Equal(t, []servicetest.Sent{{Identifier: "31997629068@s.whatsapp.net", Body: "Olá!"}}, session.SentMessages())
}

func TestSendFullIdentifierPassesThrough(t *testing.T) {
	session := &servicetest.Session{Ready: true}
	app := newApp(t, session, &servicetest.Normalizer{})

	code, _ := servicetest.Call(t, app, fiber.MethodPost, "/send-message", `{"numero":"5531997629068@c.us","mensagem":"oi"}`)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "5531997629068@c.us", session.SentMessages()[0].Identifier)
}

func TestSendWithValidation(t *testing.T) {
	session := &servicetest.Session{Ready: true}
	normalizer := &servicetest.Normalizer{Identifier: "5531997629068@s.whatsapp.net"}
	app := newApp(t, session, normalizer)

	code, resp := servicetest.Call(t, app, fiber.MethodPost, "/send-message", `{"numero":3197629068,"mensagem":"oi","validar":"true"}`)
	require.Equal(t, fiber.StatusOK, code)

	data := servicetest.Data(t, resp)
	assert.Equal(t, "5531997629068@s.whatsapp.net", data["numero_validado"])
	assert.Equal(t, []string{"3197629068"}, normalizer.Calls)
	assert.Equal(t, "5531997629068@s.whatsapp.net", session.SentMessages()[0].Identifier)
}

func TestSendValidationFailureSkipsSend(t *testing.T) {
	session := &servicetest.Session{Ready: true}
	normalizer := &servicetest.Normalizer{Err: &pkgNumber.NumberNotFoundError{Raw: "3197629068"}}
	app := newApp(t, session, normalizer)

	code, resp := servicetest.Call(t, app, fiber.MethodPost, "/send-message", `{"numero":"3197629068","mensagem":"oi","validar":true}`)
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.Equal(t, "3197629068", servicetest.Data(t, resp)["numero"])
	assert.Empty(t, session.SentMessages())
}

func TestSendRejectsBadInput(t *testing.T) {
	session := &servicetest.Session{Ready: true}
	app := newApp(t, session, &servicetest.Normalizer{})

	for _, body := range []string{
		`{"numero":"31997629068"}`,
		`{"numero":"31997629068","mensagem":"   "}`,
		`{"mensagem":"oi"}`,
		`{"numero":"31997629068","mensagem":"oi","validar":"maybe"}`,
	} {
		code, _ := servicetest.Call(t, app, fiber.MethodPost, "/send-message", body)
		assert.Equal(t, fiber.StatusBadRequest, code, body)
	}
	assert.Empty(t, session.SentMessages())
}

func TestSendNotReady(t *testing.T) {
	session := &servicetest.Session{}
	app := newApp(t, session, &servicetest.Normalizer{})

	code, _ := servicetest.Call(t, app, fiber.MethodPost, "/send-message", `{"numero":"31997629068","mensagem":"oi"}`)
	assert.Equal(t, fiber.StatusServiceUnavailable, code)
	assert.Empty(t, session.SentMessages())
}

func TestSendErrorStatus(t *testing.T) {
	cases := map[error]int{
		pkgWhatsApp.ErrInvalidJID:  fiber.StatusBadRequest,
		pkgWhatsApp.ErrNotReady:    fiber.StatusServiceUnavailable,
		queue.ErrQueueFull:         fiber.StatusServiceUnavailable,
		errors.New("server error"): fiber.StatusInternalServerError,
	}
	for err, want := range cases {
		session := &servicetest.Session{Ready: true, SendErr: err}
		app := newApp(t, session, &servicetest.Normalizer{})

		code, resp := servicetest.Call(t, app, fiber.MethodPost, "/send-message", `{"numero":"31997629068","mensagem":"oi"}`)
		assert.Equal(t, want, code, err.Error())
		assert.Equal(t, err.Error(), resp.Error)
		assert.Equal(t, want, sendErrorStatus(err))
	}
}
