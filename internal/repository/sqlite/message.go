package sqlite

import (
	"context"
	"fmt"

	"github.com/artchat/artchat/internal/domain"
	"github.com/google/uuid"
)

// MessageRepository implements domain.MessageRepository on SQLite
type MessageRepository struct {
	db *DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a new message
func (r *MessageRepository) Create(ctx context.Context, message *domain.Message) error {
	query := `
		INSERT INTO messages (id, room, sender_id, sender_name, message_type, content,
			drawing_url, image_url, timestamp, is_read)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.sql.ExecContext(ctx, query,
		message.ID.String(),
		message.Room,
		message.SenderID.String(),
		message.SenderName,
		string(message.MessageType),
		message.Content,
		message.DrawingURL,
		message.ImageURL,
		message.Timestamp.UTC(),
		message.IsRead,
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	return nil
}

// ListByRoom retrieves the latest messages for a room in chronological order
func (r *MessageRepository) ListByRoom(ctx context.Context, room string, limit int) ([]domain.Message, error) {
	query := `
		SELECT id, room, sender_id, sender_name, message_type, content,
			drawing_url, image_url, timestamp, is_read
		FROM messages
		WHERE room = ?
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := r.db.sql.QueryContext(ctx, query, room, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var m domain.Message
		var id, senderID, typeStr string

		if err := rows.Scan(
			&id,
			&m.Room,
			&senderID,
			&m.SenderName,
			&typeStr,
			&m.Content,
			&m.DrawingURL,
			&m.ImageURL,
			&m.Timestamp,
			&m.IsRead,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}

		if m.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid message id %q: %w", id, err)
		}
		if m.SenderID, err = uuid.Parse(senderID); err != nil {
			return nil, fmt.Errorf("invalid sender id %q: %w", senderID, err)
		}
		m.MessageType = domain.MessageType(typeStr)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to return chronological order (oldest first)
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
