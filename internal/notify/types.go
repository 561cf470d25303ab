package notify

import (
	"time"
)

type EventType string

const (
	EventNumberValidated        EventType = "number.validated"
	EventNumberNotFound         EventType = "number.not_found"
	EventNumberUnrecognized     EventType = "number.unrecognized"
	EventNumberFailed           EventType = "number.failed"
	EventMessageSent            EventType = "message.sent"
	EventMessageFailed          EventType = "message.failed"
	EventConnectionReady        EventType = "connection.ready"
	EventConnectionDisconnected EventType = "connection.disconnected"
)

type Event struct {
	EventType EventType              `json:"event_type"`
	RequestID string                 `json:"request_id,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

type Config struct {
	URLs       []string
	Secret     string
	Workers    int
	RetryLimit int
	QueueSize  int
	Timeout    time.Duration
}
