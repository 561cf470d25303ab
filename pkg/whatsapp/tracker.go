package whatsapp

import (
	"sync"
	"time"

	"github.com/gdbrns/go-whatsapp-number-bot/pkg/number"
)

const defaultTrackerDepth = 20

type trackedMessage struct {
	id     string
	chat   string
	ack    number.AckLevel
	sentAt time.Time
}

// ackTracker remembers messages this process sent and the best acknowledgment seen
// for each. whatsmeow keeps no message history, so receipts are folded in here.
type ackTracker struct {
	mu     sync.Mutex
	depth  int
	byID   map[string]*trackedMessage
	byChat map[string][]*trackedMessage
}

func newAckTracker(depth int) *ackTracker {
	if depth <= 0 {
		depth = defaultTrackerDepth
	}
	return &ackTracker{
		depth:  depth,
		byID:   make(map[string]*trackedMessage),
		byChat: make(map[string][]*trackedMessage),
	}
}

func (t *ackTracker) record(chat string, id string, ack number.AckLevel) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if m, ok := t.byID[id]; ok {
		m.ack = maxAck(m.ack, ack)
		return
	}
	m := &trackedMessage{id: id, chat: chat, ack: ack, sentAt: time.Now()}
	t.byID[id] = m
	list := append(t.byChat[chat], m)
	if len(list) > t.depth {
		for _, old := range list[:len(list)-t.depth] {
			delete(t.byID, old.id)
		}
		list = append([]*trackedMessage(nil), list[len(list)-t.depth:]...)
	}
	t.byChat[chat] = list
}

// update raises the acknowledgment of a tracked message. Unknown ids are ignored.
func (t *ackTracker) update(id string, ack number.AckLevel) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	m, ok := t.byID[id]
	if !ok {
		return false
	}
	m.ack = maxAck(m.ack, ack)
	return true
}

func (t *ackTracker) forget(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	m, ok := t.byID[id]
	if !ok {
		return
	}
	delete(t.byID, id)
	list := t.byChat[m.chat]
	for i, candidate := range list {
		if candidate.id == id {
			list = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(t.byChat, m.chat)
	} else {
		t.byChat[m.chat] = list
	}
}

// recent returns up to limit messages sent to chat, newest first.
func (t *ackTracker) recent(chat string, limit int) []number.Message {
	t.mu.Lock()
	defer t.mu.Unlock()

	list := t.byChat[chat]
	if limit <= 0 || limit > len(list) {
		limit = len(list)
	}
	out := make([]number.Message, 0, limit)
	for i := len(list) - 1; i >= 0 && len(out) < limit; i-- {
		m := list[i]
		out = append(out, number.Message{ID: m.id, Chat: m.chat, Ack: m.ack})
	}
	return out
}

// prune drops messages older than maxAge and returns how many were removed.
func (t *ackTracker) prune(maxAge time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for chat, list := range t.byChat {
		kept := list[:0]
		for _, m := range list {
			if m.sentAt.Before(cutoff) {
				delete(t.byID, m.id)
				removed++
				continue
			}
			kept = append(kept, m)
		}
		if len(kept) == 0 {
			delete(t.byChat, chat)
		} else {
			t.byChat[chat] = kept
		}
	}
	return removed
}

func (t *ackTracker) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byID)
}

// maxAck keeps acknowledgments monotonic; an error only sticks before delivery.
func maxAck(current number.AckLevel, next number.AckLevel) number.AckLevel {
	if next == number.AckError {
		if current >= number.AckDelivered {
			return current
		}
		return number.AckError
	}
	if next > current {
		return next
	}
	return current
}
