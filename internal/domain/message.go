package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultRoom is the well-known room every client can join.
const DefaultRoom = "global"

// MessageType discriminates message payloads
type MessageType string

const (
	MessageTypeText    MessageType = "text"
	MessageTypeDrawing MessageType = "drawing"
	MessageTypeImage   MessageType = "image"
)

// Message represents a chat message. Immutable once persisted.
type Message struct {
	ID          uuid.UUID   `json:"id"`
	Room        string      `json:"room"`
	SenderID    uuid.UUID   `json:"sender_id"`
	SenderName  string      `json:"sender_name"`
	MessageType MessageType `json:"message_type"`
	Content     string      `json:"content"`
	DrawingURL  *string     `json:"drawing_url"`
	ImageURL    *string     `json:"image_url"`
	Timestamp   time.Time   `json:"timestamp"`
	IsRead      bool        `json:"is_read"`
}

// MessageSend represents an outbound message request (HTTP or socket)
type MessageSend struct {
	Room        string  `json:"room"`
	Content     string  `json:"content" validate:"required"`
	MessageType string  `json:"message_type"`
	DrawingURL  *string `json:"drawing_url"`
	ImageURL    *string `json:"image_url"`
}

// MessageRepository defines the interface for message storage
type MessageRepository interface {
	Create(ctx context.Context, message *Message) error
	ListByRoom(ctx context.Context, room string, limit int) ([]Message, error)
}
