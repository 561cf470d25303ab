package internal

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdbrns/go-whatsapp-number-bot/internal/service/servicetest"
	pkgWhatsApp "github.com/gdbrns/go-whatsapp-number-bot/pkg/whatsapp"
)

type fakeSession struct {
	mu sync.Mutex

	state        pkgWhatsApp.State
	healthy      bool
	reconnectErr error
	connectErrs  []error

	reconnects int
	connects   int
	listeners  []func(pkgWhatsApp.State)
}

func (s *fakeSession) State() pkgWhatsApp.State { return s.state }
func (s *fakeSession) Healthy() bool { return s.healthy }
func (s *fakeSession) Self() string { return "5531997629068@s.whatsapp.net" }

func (s *fakeSession) Reconnect() error {
	s.reconnects++
	return s.reconnectErr
}

func (s *fakeSession) PruneTracked(maxAge time.Duration) int { return 0 }

func (s *fakeSession) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connects++
	if len(s.connectErrs) == 0 {
		return nil
	}
	err := s.connectErrs[0]
	s.connectErrs = s.connectErrs[1:]
	return err
}

func (s *fakeSession) OnStateChange(fn func(pkgWhatsApp.State)) {
	s.listeners = append(s.listeners, fn)
}

func TestHealthCheck(t *testing.T) {
	healthy := &fakeSession{healthy: true, state: pkgWhatsApp.StateReady}
	HealthCheck(healthy)
	assert.Zero(t, healthy.reconnects)

	pairing := &fakeSession{state: pkgWhatsApp.StateConnecting}
	HealthCheck(pairing)
	assert.Zero(t, pairing.reconnects)

	dropped := &fakeSession{state: pkgWhatsApp.StateDisconnected, reconnectErr: errors.New("offline")}
	HealthCheck(dropped)
	assert.Equal(t, 1, dropped.reconnects)
}

func TestConnectWithRetry(t *testing.T) {
	session := &fakeSession{connectErrs: []error{errors.New("a"), errors.New("b")}}
	require.NoError(t, connectWithRetry(session, 3, time.Millisecond, time.Millisecond))
	assert.Equal(t, 3, session.connects)

	failing := &fakeSession{connectErrs: []error{errors.New("a"), errors.New("last")}}
	assert.EqualError(t, connectWithRetry(failing, 2, time.Millisecond, time.Millisecond), "last")
	assert.Equal(t, 2, failing.connects)

	once := &fakeSession{connectErrs: []error{errors.New("only")}}
	assert.EqualError(t, connectWithRetry(once, 0, 0, 0), "only")
	assert.Equal(t, 1, once.connects)
}

func TestStartupRegistersListenerAndConnects(t *testing.T) {
	t.Setenv("WHATSAPP_STARTUP_RECONNECT_RETRIES", "1")
	session := &fakeSession{}
	svc := servicetest.New(t, &servicetest.Session{}, &servicetest.Normalizer{})

	Startup(session, svc)
	assert.Equal(t, 1, session.connects)
	require.Len(t, session.listeners, 1)

	// Without callback URLs the notifier is nil and dispatch is a no-op.
	assert.NotPanics(t, func() {
		session.listeners[0](pkgWhatsApp.StateReady)
		session.listeners[0](pkgWhatsApp.StateDisconnected)
	})
}

func TestLoadRouteOptions(t *testing.T) {
	t.Setenv("API_JWT_SECRET", "jwt")
	t.Setenv("ADMIN_SECRET_KEY", "admin")

	opts := LoadRouteOptions()
	assert.Equal(t, "jwt", opts.JWTSecret)
	assert.Equal(t, "admin", opts.AdminSecret)
}
