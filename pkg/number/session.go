package number

import (
	"context"
)

// AckLevel is the delivery progress of a sent message as reported by the network.
type AckLevel int

const (
	AckError   AckLevel = -1
	AckPending AckLevel = 0
	AckServer  AckLevel = 1
	AckDevice  AckLevel = 2
	AckRead    AckLevel = 3
	AckPlayed  AckLevel = 4
)

// AckDelivered is the lowest level that counts as a confirmed delivery.
const AckDelivered = AckDevice

func (a AckLevel) String() string {
	switch a {
	case AckError:
		return "error"
	case AckPending:
		return "pending"
	case AckServer:
		return "server"
	case AckDevice:
		return "delivered"
	case AckRead:
		return "read"
	case AckPlayed:
		return "played"
	}
	return "unknown"
}

type Message struct {
	ID   string
	Chat string
	Ack  AckLevel
}

// Session is the messaging capability the normalizer probes through.
// Implementations must be safe to call from the queue worker goroutine.
type Session interface {
	SendMessage(ctx context.Context, identifier string, body string) (Message, error)
	// GetRecentMessages returns up to limit messages of the conversation, newest first.
	GetRecentMessages(ctx context.Context, identifier string, limit int) ([]Message, error)
	DeleteMessage(ctx context.Context, msg Message, forEveryone bool) error
}
