// Package events fans out server-side notifications (session changes,
// alerts, device changes, preview selection) to any number of subscribers.
package events

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

type Type string

const (
	TypeSession Type = "session" // a session changed state
	TypeAlert   Type = "alert"   // user-visible failure
	TypeDevice  Type = "device"  // a capture device connected or disconnected
	TypePreview Type = "preview" // local preview selection committed
)

// Event is one notification. Payload is JSON-encoded as-is.
type Event struct {
	Type    Type      `json:"type"`
	Time    time.Time `json:"time"`
	Payload any       `json:"payload"`
}

// Alert is the payload of TypeAlert events.
type Alert struct {
	Message string `json:"message"`
	Session string `json:"session,omitempty"`
	Output  string `json:"output,omitempty"` // captured process output, if any
}

// subscriberBuffer is the number of events a slow subscriber may lag behind
// before further events are dropped for it.
const subscriberBuffer = 64

// Hub is a non-blocking publish/subscribe fan-out. Publish never waits on a
// subscriber; a full subscriber loses events rather than stalling the
// session loop.
type Hub struct {
	log  *zap.Logger
	mu   sync.RWMutex
	subs map[chan Event]struct{}
	now  func() time.Time
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		log:  log.Named("events"),
		subs: make(map[chan Event]struct{}),
		now:  time.Now,
	}
}

// Subscribe registers a subscriber. cancel unregisters it and closes the channel.
func (h *Hub) Subscribe() (ch <-chan Event, cancel func()) {
	c := make(chan Event, subscriberBuffer)
	h.mu.Lock()
	h.subs[c] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return c, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, c)
			h.mu.Unlock()
			close(c)
		})
	}
}

// Publish delivers an event to every subscriber that has room for it.
func (h *Hub) Publish(t Type, payload any) {
	ev := Event{Type: t, Time: h.now(), Payload: payload}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.subs {
		select {
		case c <- ev:
		default:
			h.log.Warn("subscriber lagging; event dropped", zap.String("type", string(t)))
		}
	}
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
