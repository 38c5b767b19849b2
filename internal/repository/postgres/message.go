package postgres

import (
	"context"
	"fmt"

	"github.com/artchat/artchat/internal/domain"
)

// MessageRepository implements domain.MessageRepository
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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		message.ID,
		message.Room,
		message.SenderID,
		message.SenderName,
		message.MessageType,
		message.Content,
		message.DrawingURL,
		message.ImageURL,
		message.Timestamp,
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
		WHERE room = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, room, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var m domain.Message
		var typeStr string

		if err := rows.Scan(
			&m.ID,
			&m.Room,
			&m.SenderID,
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
		m.MessageType = domain.MessageType(typeStr)
		messages = append(messages, m)
	}

	// Reverse to return chronological order (oldest first)
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
