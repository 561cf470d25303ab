// Package servicetest provides in-memory doubles of the service dependencies for
// controller tests.
package servicetest

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/gdbrns/go-whatsapp-number-bot/internal/audit"
	"github.com/gdbrns/go-whatsapp-number-bot/internal/service"
	"github.com/gdbrns/go-whatsapp-number-bot/pkg/number"
	"github.com/gdbrns/go-whatsapp-number-bot/pkg/queue"
	"github.com/gdbrns/go-whatsapp-number-bot/pkg/router"
	"github.com/gdbrns/go-whatsapp-number-bot/pkg/whatsapp"
)

type Sent struct {
	Identifier string
	Body       string
}

// Session is a scripted WhatsApp session.
type Session struct {
	mu sync.Mutex

	Ready        bool
	Current      whatsapp.State
	JID          string
	Code         string
	Expires      time.Time
	DataURL      string
	DataURLErr   error
	ReconnectErr error
	SendErr      error

	Reconnects int
	Sent       []Sent
}

func (s *Session) State() whatsapp.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Ready {
		return whatsapp.StateReady
	}
	return s.Current
}

func (s *Session) IsReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Ready
}

func (s *Session) Self() string {
	return s.JID
}

func (s *Session) QR() (string, time.Time) {
	return s.Code, s.Expires
}

func (s *Session) QRDataURL() (string, error) {
	return s.DataURL, s.DataURLErr
}

func (s *Session) Reconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Reconnects++
	return s.ReconnectErr
}

func (s *Session) SendMessage(ctx context.Context, identifier string, body string) (number.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Sent = append(s.Sent, Sent{Identifier: identifier, Body: body})
	if s.SendErr != nil {
		return number.Message{}, s.SendErr
	}
	return number.Message{ID: "3EB0TEST", Chat: identifier, Ack: number.AckServer}, nil
}

func (s *Session) SentMessages() []Sent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Sent(nil), s.Sent...)
}

// Normalizer returns Identifier or Err for every input and records what it was asked.
type Normalizer struct {
	mu sync.Mutex

	Identifier string
	Err        error
	Cfg        number.Config

	Calls []string
}

func (n *Normalizer) Normalize(ctx context.Context, raw string) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Calls = append(n.Calls, raw)
	if n.Err != nil {
		return "", n.Err
	}
	return n.Identifier, nil
}

func (n *Normalizer) Config() number.Config {
	if n.Cfg.Suffix == "" {
		return number.DefaultConfig()
	}
	return n.Cfg
}

func (n *Normalizer) CallCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Calls)
}

// New builds a Service around the doubles with a live queue that is shut down with the test.
func New(t testing.TB, session *Session, normalizer *Normalizer) *service.Service {
	t.Helper()
	q := queue.New(queue.Options{})
	t.Cleanup(q.Shutdown)
	return &service.Service{
		Session:    session,
		Normalizer: normalizer,
		Queue:      q,
		StartedAt:  time.Now(),
	}
}

// AuditStore opens an in-memory validation log.
func AuditStore(t testing.TB) *audit.Store {
	t.Helper()
	db, err := sql.Open("sqlite3", "file::memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	store := audit.NewStore(db, "sqlite3")
	require.NoError(t, store.Upgrade(context.Background()))
	return store
}

// App returns a fiber app with the request id middleware and the JSON error handler.
func App() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: router.HttpErrorHandler})
	app.Use(router.HttpRequestID())
	return app
}

// Call performs a request against app and decodes the response envelope.
func Call(t testing.TB, app *fiber.App, method string, path string, body string) (int, router.Response) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out router.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

// Data returns the envelope data as a JSON object.
func Data(t testing.TB, resp router.Response) map[string]interface{} {
	t.Helper()
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "response data is %T", resp.Data)
	return data
}
