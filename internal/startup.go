package internal

import (
	mathrand "math/rand/v2"
	"time"

	"github.com/gdbrns/go-whatsapp-number-bot/internal/notify"
	"github.com/gdbrns/go-whatsapp-number-bot/internal/service"
	"github.com/gdbrns/go-whatsapp-number-bot/pkg/env"
	"github.com/gdbrns/go-whatsapp-number-bot/pkg/log"
	pkgWhatsApp "github.com/gdbrns/go-whatsapp-number-bot/pkg/whatsapp"
)

// StartupSession is what the startup pass needs from the WhatsApp session.
type StartupSession interface {
	Connect() error
	Self() string
	OnStateChange(fn func(pkgWhatsApp.State))
}

func connectWithRetry(session StartupSession, retries int, baseBackoff time.Duration, maxBackoff time.Duration) error {
	if retries <= 1 {
		return session.Connect()
	}
	if baseBackoff <= 0 {
		baseBackoff = 2 * time.Second
	}
	if maxBackoff <= 0 {
		maxBackoff = 30 * time.Second
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		lastErr = session.Connect()
		if lastErr == nil {
			return nil
		}
		if attempt == retries {
			break
		}

		// Exponential backoff with small jitter.
		backoff := baseBackoff * time.Duration(1<<(attempt-1))
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
		jitter := time.Duration(mathrand.Int64N(int64(500*time.Millisecond) + 1))
		log.Session().WithError(lastErr).WithField("attempt", attempt).Warn("Connect failed, retrying")
		time.Sleep(backoff + jitter)
	}
	return lastErr
}

// Startup forwards connection changes to callbacks and brings the session online.
func Startup(session StartupSession, svc *service.Service) {
	log.Print(nil).Info("Running Startup Tasks")

	session.OnStateChange(func(state pkgWhatsApp.State) {
		switch state {
		case pkgWhatsApp.StateReady:
			svc.Dispatch(notify.Event{
				EventType: notify.EventConnectionReady,
				Data:      map[string]interface{}{"jid": session.Self()},
			})
		case pkgWhatsApp.StateDisconnected:
			svc.Dispatch(notify.Event{
				EventType: notify.EventConnectionDisconnected,
				Data:      map[string]interface{}{},
			})
		}
	})

	retries := env.GetEnvIntOrDefault("WHATSAPP_STARTUP_RECONNECT_RETRIES", 5)
	baseBackoff := env.GetEnvDurationOrDefault("WHATSAPP_STARTUP_RECONNECT_BACKOFF_BASE", 2*time.Second)
	maxBackoff := env.GetEnvDurationOrDefault("WHATSAPP_STARTUP_RECONNECT_BACKOFF_MAX", 30*time.Second)

	if err := connectWithRetry(session, retries, baseBackoff, maxBackoff); err != nil {
		log.Session().WithError(err).WithField("retries", retries).Error("Failed to connect WhatsApp client; the health check will retry")
		return
	}
	log.Print(nil).WithField("retries", retries).Info("Startup connect pass complete")
}
