package chat

import (
	"sync"

	"github.com/artchat/artchat/internal/domain"
	"github.com/rs/zerolog/log"
)

// Sender delivers one framed event to a single live connection.
// Implementations must be safe for concurrent use.
type Sender interface {
	SendEvent(event string, payload any) error
}

// Broadcaster fans an event out to every connection joined to a room.
// Membership is snapshotted from the registry at publish time: a connection
// that joins mid-delivery may or may not receive the event, and no guarantee
// is made either way. Delivery is best-effort per recipient; a failed send
// is logged and does not abort delivery to the rest.
type Broadcaster struct {
	registry *Registry

	mu      sync.RWMutex
	senders map[string]Sender
}

// NewBroadcaster builds a broadcaster over the given registry.
func NewBroadcaster(registry *Registry) *Broadcaster {
	return &Broadcaster{
		registry: registry,
		senders:  make(map[string]Sender),
	}
}

// Attach makes connID reachable for unicast and broadcast delivery.
func (b *Broadcaster) Attach(connID string, sender Sender) {
	b.mu.Lock()
	b.senders[connID] = sender
	b.mu.Unlock()
}

// Detach removes the sender for connID. Idempotent.
func (b *Broadcaster) Detach(connID string) {
	b.mu.Lock()
	delete(b.senders, connID)
	b.mu.Unlock()
}

// Publish delivers payload to every connection in room at call time.
// Events published in call order arrive in call order at each recipient.
func (b *Broadcaster) Publish(room, event string, payload any) {
	members := b.registry.MembersOf(room)

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, connID := range members {
		sender, ok := b.senders[connID]
		if !ok {
			// Registered but already detached; skip.
			continue
		}
		if err := sender.SendEvent(event, payload); err != nil {
			log.Warn().
				Err(err).
				Str("conn_id", connID).
				Str("room", room).
				Str("event", event).
				Msg("broadcast delivery failed")
		}
	}
}

// Unicast delivers payload to a single connection only.
func (b *Broadcaster) Unicast(connID, event string, payload any) error {
	b.mu.RLock()
	sender, ok := b.senders[connID]
	b.mu.RUnlock()

	if !ok {
		return domain.ErrAlreadyDisconnected
	}
	return sender.SendEvent(event, payload)
}
