package whatsapp

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mdp/qrterminal/v3"
	qrCode "github.com/skip2/go-qrcode"
	"google.golang.org/protobuf/proto"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waCompanionReg"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	"github.com/gdbrns/go-whatsapp-number-bot/pkg/env"
	"github.com/gdbrns/go-whatsapp-number-bot/pkg/log"
	"github.com/gdbrns/go-whatsapp-number-bot/pkg/number"
)

var (
	ErrNotReady        = errors.New("WhatsApp session is not ready")
	ErrInvalidJID      = errors.New("WhatsApp identifier is not valid")
	ErrDeleteForMeOnly = errors.New("WhatsApp delete-for-me is not supported, revoke for everyone instead")
)

const qrChannelWaitTimeout = 2 * time.Minute

type Config struct {
	ProxyURL     string
	QRTerminal   bool
	TrackerDepth int
}

func LoadConfig() Config {
	return Config{
		ProxyURL:     env.GetEnvStringOrDefault("WHATSAPP_CLIENT_PROXY_URL", ""),
		QRTerminal:   env.GetEnvBoolOrDefault("WHATSAPP_QR_TERMINAL", true),
		TrackerDepth: env.GetEnvIntOrDefault("WHATSAPP_TRACKER_DEPTH", defaultTrackerDepth),
	}
}

// Session owns the one authenticated WhatsApp connection of the process.
type Session struct {
	cfg       Config
	container *sqlstore.Container
	client    *whatsmeow.Client
	tracker   *ackTracker
	state     atomic.Int32

	mu        sync.RWMutex
	qrCode    string
	qrExpires time.Time
	listeners []func(State)
}

// Open prepares the device store on ds and builds the client. Call Connect to go online.
func Open(ctx context.Context, ds *Datastore, cfg Config) (*Session, error) {
	if ds == nil || ds.DB == nil {
		return nil, errors.New("whatsapp datastore not initialized")
	}

	container := sqlstore.NewWithDB(ds.DB, ds.Dialect, newWALogger(log.Session(), "Database"))
	if err := container.Upgrade(ctx); err != nil {
		return nil, fmt.Errorf("upgrade operation failed: %w", err)
	}

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load WhatsApp device: %w", err)
	}

	store.DeviceProps.Os = proto.String(runtime.GOOS)
	store.DeviceProps.PlatformType = waCompanionReg.DeviceProps_CHROME.Enum()
	store.DeviceProps.RequireFullSync = proto.Bool(false)

	client := whatsmeow.NewClient(device, newWALogger(log.Session(), "Client"))
	if cfg.ProxyURL != "" {
		if err := client.SetProxyAddress(cfg.ProxyURL); err != nil {
			return nil, fmt.Errorf("invalid WhatsApp proxy address: %w", err)
		}
	}
	client.EnableAutoReconnect = true
	client.AutoTrustIdentity = true

	s := &Session{
		cfg:       cfg,
		container: container,
		client:    client,
		tracker:   newAckTracker(cfg.TrackerDepth),
	}
	client.AddEventHandler(s.handleEvent)
	return s, nil
}

// OnStateChange registers fn to be called after every state transition.
func (s *Session) OnStateChange(fn func(State)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) IsReady() bool {
	return s.State() == StateReady
}

func (s *Session) setState(next State) {
	prev := State(s.state.Swap(int32(next)))
	if prev == next {
		return
	}
	log.Session().WithField("from", prev.String()).WithField("to", next.String()).Info("Session state changed")

	s.mu.RLock()
	listeners := slices.Clone(s.listeners)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(next)
	}
}

// Connect goes online. An unpaired device starts QR pairing; codes are exposed via QR
// and optionally printed to the terminal.
func (s *Session) Connect() error {
	s.setState(StateConnecting)

	if s.client.Store.ID == nil {
		ctx, cancel := context.WithTimeout(context.Background(), qrChannelWaitTimeout)
		qrChan, err := s.client.GetQRChannel(ctx)
		if err != nil {
			cancel()
			s.setState(StateDisconnected)
			return err
		}
		if err = s.client.Connect(); err != nil {
			cancel()
			s.setState(StateDisconnected)
			return err
		}
		go func() {
			defer cancel()
			s.watchQR(qrChan)
		}()
		return nil
	}

	if err := s.client.Connect(); err != nil {
		s.setState(StateDisconnected)
		return err
	}
	return nil
}

func (s *Session) Reconnect() error {
	s.client.Disconnect()
	return s.Connect()
}

func (s *Session) Close() {
	s.client.Disconnect()
	s.setState(StateDisconnected)
}

func (s *Session) watchQR(qrChan <-chan whatsmeow.QRChannelItem) {
	for evt := range qrChan {
		switch {
		case evt.Event == whatsmeow.QRChannelEventCode:
			s.mu.Lock()
			s.qrCode = evt.Code
			s.qrExpires = time.Now().Add(evt.Timeout)
			s.mu.Unlock()
			log.Session().WithField("expires_in", evt.Timeout.String()).Info("QR code generated, scan it with WhatsApp")
			if s.cfg.QRTerminal {
				qrterminal.GenerateHalfBlock(evt.Code, qrterminal.L, os.Stdout)
			}
		case evt.Event == whatsmeow.QRChannelSuccess.Event:
			s.clearQR()
			log.Session().Info("QR pairing succeeded")
			return
		case evt.Event == whatsmeow.QRChannelTimeout.Event:
			s.clearQR()
			log.Session().Warn("QR pairing timed out")
			s.setState(StateDisconnected)
			return
		case evt.Event == whatsmeow.QRChannelEventError:
			s.clearQR()
			log.Session().WithError(evt.Error).Error("QR pairing failed")
			s.setState(StateDisconnected)
			return
		default:
			log.Session().WithField("event", evt.Event).Warn("Unexpected QR channel event")
		}
	}
}

func (s *Session) clearQR() {
	s.mu.Lock()
	s.qrCode = ""
	s.qrExpires = time.Time{}
	s.mu.Unlock()
}

// QR returns the pending pairing code, if any, with its expiry.
func (s *Session) QR() (string, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.qrCode, s.qrExpires
}

// QRDataURL renders the pending pairing code as a PNG data URL.
func (s *Session) QRDataURL() (string, error) {
	code, _ := s.QR()
	if code == "" {
		return "", nil
	}
	png, err := qrCode.Encode(code, qrCode.Medium, 300)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// Self is the paired account, empty while unpaired.
func (s *Session) Self() string {
	if s.client.Store.ID == nil {
		return ""
	}
	return s.client.Store.ID.ToNonAD().String()
}

// Healthy reports whether the socket is up and logged in, independently of State.
func (s *Session) Healthy() bool {
	return s.client.IsConnected() && s.client.IsLoggedIn()
}

func (s *Session) handleEvent(evt interface{}) {
	switch e := evt.(type) {
	case *events.Connected:
		s.clearQR()
		log.Session().WithField("jid", log.MaskPhone(s.Self())).Info("Client connected")
		s.setState(StateReady)
	case *events.Disconnected:
		log.Session().Warn("Client disconnected")
		s.setState(StateDisconnected)
	case *events.LoggedOut:
		log.Session().WithField("reason", e.Reason.String()).Warn("Client logged out")
		s.clearQR()
		s.setState(StateDisconnected)
	case *events.StreamReplaced:
		log.Session().Warn("Client stream replaced by another connection")
		s.clearQR()
		s.setState(StateDisconnected)
	case *events.PairSuccess:
		log.Session().WithField("jid", log.MaskPhone(e.ID.String())).WithField("platform", e.Platform).Info("Device paired")
	case *events.KeepAliveTimeout:
		log.Session().Warn(fmt.Sprintf("Client keepalive timeout, errors=%d, lastSuccess=%s", e.ErrorCount, e.LastSuccess.Format(time.RFC3339)))
	case *events.TemporaryBan:
		log.Session().Error(fmt.Sprintf("Client temporarily banned, reason=%s, expires=%s", e.Code, e.Expire))
	case *events.ConnectFailure:
		log.Session().Error(fmt.Sprintf("Client connection failure, reason=%s, message=%s", e.Reason, e.Message))
		s.setState(StateDisconnected)
	case *events.Receipt:
		ack, ok := receiptAck(e.Type)
		if !ok {
			return
		}
		for _, id := range e.MessageIDs {
			if s.tracker.update(string(id), ack) {
				log.Session().WithField("message_id", id).WithField("ack", ack.String()).Debug("Receipt applied")
			}
		}
	}
}

func receiptAck(t types.ReceiptType) (number.AckLevel, bool) {
	switch t {
	case types.ReceiptTypeDelivered:
		return number.AckDevice, true
	case types.ReceiptTypeRead, types.ReceiptTypeReadSelf:
		return number.AckRead, true
	case types.ReceiptTypePlayed:
		return number.AckPlayed, true
	case types.ReceiptTypeServerError:
		return number.AckError, true
	}
	return 0, false
}

func (s *Session) parseJID(identifier string) (types.JID, error) {
	jid, err := types.ParseJID(identifier)
	if err != nil || jid.User == "" {
		return types.EmptyJID, ErrInvalidJID
	}
	if jid.Server == "" || jid.Server == "c.us" {
		jid.Server = types.DefaultUserServer
	}
	return jid, nil
}

// SendMessage sends a plain text message. The returned message is at AckServer since
// whatsmeow returns only once the server accepted it.
func (s *Session) SendMessage(ctx context.Context, identifier string, body string) (number.Message, error) {
	if !s.IsReady() {
		return number.Message{}, ErrNotReady
	}
	jid, err := s.parseJID(identifier)
	if err != nil {
		return number.Message{}, err
	}

	id := s.client.GenerateMessageID()
	// Receipts may beat SendMessage back, so track before sending.
	s.tracker.record(identifier, string(id), number.AckPending)

	_, err = s.client.SendMessage(ctx, jid, &waE2E.Message{
		Conversation: proto.String(body),
	}, whatsmeow.SendRequestExtra{ID: id})
	if err != nil {
		s.tracker.forget(string(id))
		return number.Message{}, err
	}

	s.tracker.update(string(id), number.AckServer)
	msg := number.Message{ID: string(id), Chat: identifier, Ack: number.AckServer}
	if recent := s.tracker.recent(identifier, 1); len(recent) > 0 && recent[0].ID == msg.ID {
		msg.Ack = recent[0].Ack
	}
	return msg, nil
}

func (s *Session) GetRecentMessages(ctx context.Context, identifier string, limit int) ([]number.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.tracker.recent(identifier, limit), nil
}

// DeleteMessage revokes msg for everyone.
func (s *Session) DeleteMessage(ctx context.Context, msg number.Message, forEveryone bool) error {
	defer s.tracker.forget(msg.ID)
	if !forEveryone {
		return ErrDeleteForMeOnly
	}
	if !s.IsReady() {
		return ErrNotReady
	}
	jid, err := s.parseJID(msg.Chat)
	if err != nil {
		return err
	}
	_, err = s.client.SendMessage(ctx, jid, s.client.BuildRevoke(jid, types.EmptyJID, types.MessageID(msg.ID)))
	return err
}

// PruneTracked forgets tracked messages older than maxAge.
func (s *Session) PruneTracked(maxAge time.Duration) int {
	return s.tracker.prune(maxAge)
}

func (s *Session) TrackedCount() int {
	return s.tracker.size()
}
