package service

import (
	"context"
	"time"

	"github.com/gdbrns/go-whatsapp-number-bot/internal/audit"
	"github.com/gdbrns/go-whatsapp-number-bot/internal/notify"
	"github.com/gdbrns/go-whatsapp-number-bot/pkg/log"
	"github.com/gdbrns/go-whatsapp-number-bot/pkg/number"
	"github.com/gdbrns/go-whatsapp-number-bot/pkg/queue"
	"github.com/gdbrns/go-whatsapp-number-bot/pkg/whatsapp"
)

// Session is the part of the WhatsApp session the HTTP layer needs.
type Session interface {
	State() whatsapp.State
	IsReady() bool
	Self() string
	QR() (string, time.Time)
	QRDataURL() (string, error)
	Reconnect() error
	SendMessage(ctx context.Context, identifier string, body string) (number.Message, error)
}

type Normalizer interface {
	Normalize(ctx context.Context, raw string) (string, error)
	Config() number.Config
}

// Service bundles the long-lived components shared by the controllers.
type Service struct {
	Session    Session
	Normalizer Normalizer
	Queue      *queue.Queue
	Notify     *notify.Engine
	Audit      *audit.Store
	Version    *whatsapp.VersionRefresher
	StartedAt  time.Time
}

// Uptime since the service started.
func (s *Service) Uptime() time.Duration {
	return time.Since(s.StartedAt)
}

// Record stores an audit row without failing the request on storage errors.
func (s *Service) Record(ctx context.Context, r audit.Record) {
	if s.Audit == nil {
		return
	}
	if err := s.Audit.Record(context.WithoutCancel(ctx), r); err != nil {
		log.Logger().WithField("component", "audit").
			WithField("request_id", r.RequestID).
			WithError(err).
			Warn("Failed to record validation")
	}
}

func (s *Service) Dispatch(event notify.Event) {
	s.Notify.Dispatch(event)
}
