package whatsapp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	"github.com/gdbrns/go-whatsapp-number-bot/pkg/number"
)

func TestReceiptAck(t *testing.T) {
	cases := []struct {
		receipt types.ReceiptType
		ack     number.AckLevel
		ok      bool
	}{
		{types.ReceiptTypeDelivered, number.AckDevice, true},
		{types.ReceiptTypeRead, number.AckRead, true},
		{types.ReceiptTypeReadSelf, number.AckRead, true},
		{types.ReceiptTypePlayed, number.AckPlayed, true},
		{types.ReceiptTypeServerError, number.AckError, true},
		{types.ReceiptTypeRetry, 0, false},
		{types.ReceiptTypeSender, 0, false},
	}
	for _, tc := range cases {
		ack, ok := receiptAck(tc.receipt)
		assert.Equal(t, tc.ok, ok, string(tc.receipt))
		if tc.ok {
			assert.Equal(t, tc.ack, ack, string(tc.receipt))
		}
	}
}

func TestReceiptEventRaisesTrackedAck(t *testing.T) {
	s := &Session{tracker: newAckTracker(0)}
	s.tracker.record(testChat, "3EB0SENT", number.AckServer)
	s.tracker.record(testChat, "3EB0OTHER", number.AckServer)

	s.handleEvent(&events.Receipt{
		MessageIDs: []types.MessageID{"3EB0SENT", "3EB0UNKNOWN"},
		Type:       types.ReceiptTypeDelivered,
	})

	recent, err := s.GetRecentMessages(context.Background(), testChat, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, number.Message{ID: "3EB0OTHER", Chat: testChat, Ack: number.AckServer}, recent[0])
	assert.Equal(t, number.Message{ID: "3EB0SENT", Chat: testChat, Ack: number.AckDevice}, recent[1])

	// Retry receipts carry no delivery information.
	s.handleEvent(&events.Receipt{MessageIDs: []types.MessageID{"3EB0OTHER"}, Type: types.ReceiptTypeRetry})
	recent, err = s.GetRecentMessages(context.Background(), testChat, 1)
	require.NoError(t, err)
	assert.Equal(t, number.AckServer, recent[0].Ack)

	s.handleEvent(&events.Receipt{MessageIDs: []types.MessageID{"3EB0OTHER"}, Type: types.ReceiptTypeServerError})
	recent, err = s.GetRecentMessages(context.Background(), testChat, 1)
	require.NoError(t, err)
	assert.Equal(t, number.AckError, recent[0].Ack)
}

func TestStreamReplacedClearsQR(t *testing.T) {
	s := &Session{tracker: newAckTracker(0)}
	s.state.Store(int32(StateConnecting))
	s.qrCode = "2@pending"
	s.qrExpires = time.Now().Add(time.Minute)

	var seen []State
	s.OnStateChange(func(state State) { seen = append(seen, state) })

	s.handleEvent(&events.StreamReplaced{})

	code, expires := s.QR()
	assert.Empty(t, code)
	assert.True(t, expires.IsZero())
	assert.Equal(t, StateDisconnected, s.State())
	assert.Equal(t, []State{StateDisconnected}, seen)
}

func TestParseJID(t *testing.T) {
	s := &Session{}

	jid, err := s.parseJID("5531997629068@c.us")
	require.NoError(t, err)
	assert.Equal(t, "5531997629068", jid.User)
	assert.Equal(t, types.DefaultUserServer, jid.Server)

	jid, err = s.parseJID("5531997629068@s.whatsapp.net")
	require.NoError(t, err)
	assert.Equal(t, "5531997629068@s.whatsapp.net", jid.String())

	_, err = s.parseJID("@s.whatsapp.net")
	assert.ErrorIs(t, err, ErrInvalidJID)

	_, err = s.parseJID("5531997629068")
	assert.ErrorIs(t, err, ErrInvalidJID)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "disconnected", State(42).String())
}

func TestDatastoreDriver(t *testing.T) {
	assert.Equal(t, "pgx", NormalizeDatastoreDriver("PostgreSQL"))
	assert.Equal(t, "pgx", NormalizeDatastoreDriver("postgres"))
	assert.Equal(t, "sqlite3", NormalizeDatastoreDriver(""))
	assert.Equal(t, "sqlite3", NormalizeDatastoreDriver(" sqlite "))
	assert.Equal(t, "mysql", NormalizeDatastoreDriver("MySQL"))

	dialect, err := datastoreDialect("pgx")
	require.NoError(t, err)
	assert.Equal(t, "postgres", dialect)

	_, err = datastoreDialect("mysql")
	assert.Error(t, err)
}

func TestDatastoreDSN(t *testing.T) {
	assert.Equal(t, "file:whatsapp.db?_foreign_keys=on", NormalizeDatastoreDSN("sqlite3", "whatsapp.db"))
	assert.Equal(t, "file:whatsapp.db?cache=shared&_foreign_keys=on", NormalizeDatastoreDSN("sqlite3", "file:whatsapp.db?cache=shared"))
	assert.Equal(t, "file:x.db?_foreign_keys=off", NormalizeDatastoreDSN("sqlite3", "file:x.db?_foreign_keys=off"))
	assert.Equal(t,
		"postgres://u:p@db/wa?sslmode=disable&default_query_exec_mode=simple_protocol",
		NormalizeDatastoreDSN("pgx", "postgres://u:p@db/wa?sslmode=disable"),
	)
}
