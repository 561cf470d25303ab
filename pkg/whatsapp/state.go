package whatsapp

// State is the connection lifecycle of the single WhatsApp session.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateReady
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	}
	return "disconnected"
}
