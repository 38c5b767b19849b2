package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/artchat/artchat/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// UserStore is the slice of user persistence the session core needs.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	SetOnline(ctx context.Context, id uuid.UUID, online bool, lastSeen time.Time) error
}

// MessageStore is the slice of message persistence the session core needs.
type MessageStore interface {
	Create(ctx context.Context, message *domain.Message) error
}

// conn tracks one live connection. Its mutex orders the connection's
// operations: a disconnect racing an in-flight send for the same connection
// is processed after the send completes. Whether the connection has joined
// a room is answered by the registry, not tracked here.
type conn struct {
	mu sync.Mutex
}

// Core orchestrates the connect/join/send/disconnect lifecycle, combining
// the presence registry, the room broadcaster and the persistence stores
// into consistent state transitions.
//
// Persistence is always called before the registry is mutated, so a store
// failure leaves the in-memory state at its pre-call value. Store calls may
// block; no registry lock is held while they run.
type Core struct {
	registry    *Registry
	bcast       *Broadcaster
	users       UserStore
	messages    MessageStore
	defaultRoom string

	mu    sync.Mutex
	conns map[string]*conn
}

// NewCore wires the session core to its collaborators. defaultRoom is the
// room a join without a room name lands in.
func NewCore(registry *Registry, bcast *Broadcaster, users UserStore, messages MessageStore, defaultRoom string) *Core {
	if defaultRoom == "" {
		defaultRoom = domain.DefaultRoom
	}
	return &Core{
		registry:    registry,
		bcast:       bcast,
		users:       users,
		messages:    messages,
		defaultRoom: defaultRoom,
		conns:       make(map[string]*conn),
	}
}

// OnConnect allocates state for a new connection and acknowledges it to the
// originating connection only. No persistence side effect.
func (c *Core) OnConnect(connID string, sender Sender) error {
	c.mu.Lock()
	if _, ok := c.conns[connID]; ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: connection id %q already in use", domain.ErrInvalidInput, connID)
	}
	c.conns[connID] = &conn{}
	c.mu.Unlock()

	c.bcast.Attach(connID, sender)

	ack := domain.ConnectedPayload{
		Sid:       connID,
		Message:   "connected",
		Timestamp: time.Now().UTC(),
	}
	if err := c.bcast.Unicast(connID, domain.EventConnected, ack); err != nil {
		log.Warn().Err(err).Str("conn_id", connID).Msg("connect ack failed")
	}
	return nil
}

// OnJoin moves the connection into room under the given user identity.
// A re-join replaces the prior room: the old membership is dropped and a
// user_left is broadcast there, so no stale dual-membership remains.
func (c *Core) OnJoin(ctx context.Context, connID string, userID uuid.UUID, room string) error {
	cn := c.lookupConn(connID)
	if cn == nil {
		return domain.ErrAlreadyDisconnected
	}

	cn.mu.Lock()
	defer cn.mu.Unlock()

	room = strings.TrimSpace(room)
	if room == "" {
		room = c.defaultRoom
	}

	user, err := c.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolve user: %w", err)
	}
	if user == nil {
		return domain.ErrUserNotFound
	}

	now := time.Now().UTC()
	if err := c.users.SetOnline(ctx, userID, true, now); err != nil {
		// Registry untouched; the join never happened.
		return fmt.Errorf("mark user online: %w", err)
	}

	prev, rejoined := c.registry.Lookup(connID)
	c.registry.Register(connID, userID, room)

	if rejoined && prev.Room != room {
		// Explicit leave of the prior room. The user stays online.
		c.bcast.Publish(prev.Room, domain.EventUserLeft, domain.PresencePayload{
			UserID:    prev.UserID.String(),
			Username:  user.DisplayName,
			Room:      prev.Room,
			Timestamp: now,
		})
	}

	// A re-join to the room the connection is already in re-registers
	// without presence churn; its members heard user_joined the first time.
	if !rejoined || prev.Room != room {
		c.bcast.Publish(room, domain.EventUserJoined, domain.PresencePayload{
			UserID:    user.ID.String(),
			Username:  user.DisplayName,
			Room:      room,
			Timestamp: now,
		})
	}

	if err := c.bcast.Unicast(connID, domain.EventJoined, domain.JoinedPayload{
		Room:    room,
		Message: fmt.Sprintf("You joined room %s", room),
		User:    user,
	}); err != nil {
		log.Warn().Err(err).Str("conn_id", connID).Msg("join ack failed")
	}

	return nil
}

// OnSend persists a message from the connection's user to its current room
// and broadcasts it to every member, the sender included. The echo is
// intentional: the sender's UI confirms delivery over the same channel as
// its peers.
func (c *Core) OnSend(ctx context.Context, connID string, send domain.MessageSend) (*domain.Message, error) {
	cn := c.lookupConn(connID)
	if cn == nil {
		return nil, domain.ErrAlreadyDisconnected
	}

	cn.mu.Lock()
	defer cn.mu.Unlock()

	entry, ok := c.registry.Lookup(connID)
	if !ok {
		return nil, domain.ErrNotJoined
	}

	content := strings.TrimSpace(send.Content)
	if content == "" {
		return nil, domain.ErrEmptyMessage
	}

	user, err := c.users.GetByID(ctx, entry.UserID)
	if err != nil {
		return nil, fmt.Errorf("resolve sender: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	msgType := domain.MessageType(send.MessageType)
	if msgType == "" {
		msgType = domain.MessageTypeText
	}

	msg := &domain.Message{
		ID:          uuid.New(),
		Room:        entry.Room,
		SenderID:    user.ID,
		SenderName:  user.DisplayName,
		MessageType: msgType,
		Content:     content,
		DrawingURL:  send.DrawingURL,
		ImageURL:    send.ImageURL,
		Timestamp:   time.Now().UTC(),
	}

	// Write-then-notify: the message is durable before anyone hears of it.
	if err := c.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("persist message: %w", err)
	}

	c.bcast.Publish(entry.Room, domain.EventNewMessage, msg)
	return msg, nil
}

// OnLeave drops the connection's room membership without tearing the
// connection down. The user stays online; a later join re-enters a room.
func (c *Core) OnLeave(ctx context.Context, connID string) error {
	cn := c.lookupConn(connID)
	if cn == nil {
		return domain.ErrAlreadyDisconnected
	}

	cn.mu.Lock()
	defer cn.mu.Unlock()

	entry, ok := c.registry.Lookup(connID)
	if !ok {
		return domain.ErrNotJoined
	}

	user, err := c.users.GetByID(ctx, entry.UserID)
	if err != nil {
		return fmt.Errorf("resolve user: %w", err)
	}

	username := ""
	if user != nil {
		username = user.DisplayName
	}

	c.registry.Unregister(connID)
	c.bcast.Publish(entry.Room, domain.EventUserLeft, domain.PresencePayload{
		UserID:    entry.UserID.String(),
		Username:  username,
		Room:      entry.Room,
		Timestamp: time.Now().UTC(),
	})

	return nil
}

// OnDisconnect tears the connection down. Unknown connections are a no-op,
// calling it twice for the same id is a no-op the second time. A store
// failure leaves the registry intact and reports the error so the transport
// can retry.
func (c *Core) OnDisconnect(ctx context.Context, connID string) error {
	cn := c.lookupConn(connID)
	if cn == nil {
		return nil
	}

	cn.mu.Lock()
	defer cn.mu.Unlock()

	if entry, ok := c.registry.Lookup(connID); ok {
		user, err := c.users.GetByID(ctx, entry.UserID)
		if err != nil {
			return fmt.Errorf("resolve user: %w", err)
		}

		// A user on several devices stays online until the last one drops.
		lastConn := true
		for _, other := range c.registry.ConnectionsOf(entry.UserID) {
			if other.ConnID != connID {
				lastConn = false
				break
			}
		}

		now := time.Now().UTC()
		if lastConn {
			if err := c.users.SetOnline(ctx, entry.UserID, false, now); err != nil {
				return fmt.Errorf("mark user offline: %w", err)
			}
		}

		if user != nil {
			c.bcast.Publish(entry.Room, domain.EventUserLeft, domain.PresencePayload{
				UserID:    entry.UserID.String(),
				Username:  user.DisplayName,
				Room:      entry.Room,
				Timestamp: now,
			})
		}

		c.registry.Unregister(connID)
	}

	c.bcast.Detach(connID)

	c.mu.Lock()
	delete(c.conns, connID)
	c.mu.Unlock()

	return nil
}

func (c *Core) lookupConn(connID string) *conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conns[connID]
}
