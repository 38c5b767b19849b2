package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry records that a connection is currently joined to a room under a
// given user identity. The connection id is the only unique key: one user
// may hold several entries at once (multiple devices).
type Entry struct {
	ConnID   string
	UserID   uuid.UUID
	Room     string
	JoinedAt time.Time
}

// Registry is the in-memory presence state. It owns Entry lifetimes, holds
// no persistence and is rebuilt as connections are re-established. All
// methods are safe for concurrent use; the lock is never held across any
// blocking call.
type Registry struct {
	mu     sync.RWMutex
	byConn map[string]Entry
	rooms  map[string]map[string]struct{}
}

// NewRegistry builds an empty presence registry.
func NewRegistry() *Registry {
	return &Registry{
		byConn: make(map[string]Entry),
		rooms:  make(map[string]map[string]struct{}),
	}
}

// Register inserts or overwrites the entry for connID. An existing entry in
// another room is removed from that room's membership first, so a
// connection is a member of at most one room.
func (r *Registry) Register(connID string, userID uuid.UUID, room string) Entry {
	entry := Entry{
		ConnID:   connID,
		UserID:   userID,
		Room:     room,
		JoinedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byConn[connID]; ok {
		r.removeFromRoom(prev.Room, connID)
	}

	r.byConn[connID] = entry
	if _, ok := r.rooms[room]; !ok {
		r.rooms[room] = make(map[string]struct{})
	}
	r.rooms[room][connID] = struct{}{}

	return entry
}

// Unregister removes and returns the entry for connID. Calling it for an
// unknown connection is a no-op and reports false.
func (r *Registry) Unregister(connID string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.byConn[connID]
	if !ok {
		return Entry{}, false
	}

	delete(r.byConn, connID)
	r.removeFromRoom(entry.Room, connID)

	return entry, true
}

// Lookup returns the entry for connID, if any.
func (r *Registry) Lookup(connID string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.byConn[connID]
	return entry, ok
}

// MembersOf returns a snapshot of the connections joined to room. The
// snapshot is taken at call time; connections joining or leaving afterwards
// are not reflected.
func (r *Registry) MembersOf(room string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[room]
	out := make([]string, 0, len(members))
	for connID := range members {
		out = append(out, connID)
	}
	return out
}

// ConnectionsOf returns every entry held by userID. A user with several
// devices has one entry per live connection.
func (r *Registry) ConnectionsOf(userID uuid.UUID) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Entry
	for _, entry := range r.byConn {
		if entry.UserID == userID {
			out = append(out, entry)
		}
	}
	return out
}

// caller must hold r.mu
func (r *Registry) removeFromRoom(room, connID string) {
	if members, ok := r.rooms[room]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
}
