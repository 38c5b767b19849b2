package domain

import "time"

// Socket event names. These are the wire-visible contract with the mobile
// client and must not change.
const (
	EventConnected  = "connected"
	EventJoined     = "joined"
	EventUserJoined = "user_joined"
	EventNewMessage = "new_message"
	EventUserLeft   = "user_left"
	EventError      = "error"
)

// Client-to-server socket events
const (
	EventJoin        = "join"
	EventSendMessage = "send_message"
	EventLeave       = "leave"
)

// Envelope frames every socket message as {"event": ..., "data": ...}.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// ConnectedPayload acknowledges a new socket connection (unicast only).
type ConnectedPayload struct {
	Sid       string    `json:"sid"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// JoinedPayload confirms a join to the joining connection (unicast only).
type JoinedPayload struct {
	Room    string `json:"room"`
	Message string `json:"message"`
	User    *User  `json:"user"`
}

// PresencePayload announces a user entering or leaving a room.
type PresencePayload struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Room      string    `json:"room"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorPayload reports a failure to the originating connection only.
type ErrorPayload struct {
	Message string `json:"message"`
}

// JoinRequest is the payload of a client "join" event.
type JoinRequest struct {
	UserID string `json:"user_id"`
	Room   string `json:"room"`
}
