package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/artchat/artchat/internal/chat"
	"github.com/artchat/artchat/internal/domain"
	"github.com/artchat/artchat/internal/repository/redis"
)

// ChatService handles message history and the HTTP send path. Socket sends
// go through chat.Core; both paths converge on the same repository and
// broadcaster.
type ChatService struct {
	messages    domain.MessageRepository
	users       domain.UserRepository
	bcast       *chat.Broadcaster
	cache       *redis.HistoryCache
	defaultRoom string
	limit       int
}

// NewChatService creates a new chat service. cache may be nil when Redis
// is not configured.
func NewChatService(
	messages domain.MessageRepository,
	users domain.UserRepository,
	bcast *chat.Broadcaster,
	cache *redis.HistoryCache,
	defaultRoom string,
	historyLimit int,
) *ChatService {
	if defaultRoom == "" {
		defaultRoom = domain.DefaultRoom
	}
	return &ChatService{
		messages:    messages,
		users:       users,
		bcast:       bcast,
		cache:       cache,
		defaultRoom: defaultRoom,
		limit:       historyLimit,
	}
}

// DefaultRoom returns the room used when a request names none.
func (s *ChatService) DefaultRoom() string {
	return s.defaultRoom
}

// History returns the most recent messages of a room in chronological order
func (s *ChatService) History(ctx context.Context, room string, limit int) ([]domain.Message, error) {
	if room == "" {
		room = s.defaultRoom
	}
	if limit <= 0 || limit > s.limit {
		limit = s.limit
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, room, limit)
		if err != nil {
			log.Warn().Err(err).Str("room", room).Msg("history cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	messages, err := s.messages.ListByRoom(ctx, room, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	if messages == nil {
		messages = []domain.Message{}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, room, limit, messages); err != nil {
			log.Warn().Err(err).Str("room", room).Msg("history cache write failed")
		}
	}

	return messages, nil
}

// Post persists a message sent over HTTP and broadcasts it to the room
func (s *ChatService) Post(ctx context.Context, senderID uuid.UUID, send domain.MessageSend) (*domain.Message, error) {
	content := strings.TrimSpace(send.Content)
	if content == "" {
		return nil, domain.ErrEmptyMessage
	}

	sender, err := s.users.GetByID(ctx, senderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sender: %w", err)
	}
	if sender == nil {
		return nil, domain.ErrUserNotFound
	}

	room := send.Room
	if room == "" {
		room = s.defaultRoom
	}
	messageType := domain.MessageType(send.MessageType)
	if messageType == "" {
		messageType = domain.MessageTypeText
	}

	message := &domain.Message{
		ID:          uuid.New(),
		Room:        room,
		SenderID:    sender.ID,
		SenderName:  sender.DisplayName,
		MessageType: messageType,
		Content:     content,
		DrawingURL:  send.DrawingURL,
		ImageURL:    send.ImageURL,
		Timestamp:   time.Now().UTC(),
	}

	if err := s.messages.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	s.invalidateHistory(ctx, room)
	s.bcast.Publish(room, domain.EventNewMessage, message)

	return message, nil
}

// Create persists a message coming from the socket path and keeps the
// cached history coherent. Satisfies chat.MessageStore.
func (s *ChatService) Create(ctx context.Context, message *domain.Message) error {
	if err := s.messages.Create(ctx, message); err != nil {
		return err
	}
	s.invalidateHistory(ctx, message.Room)
	return nil
}

func (s *ChatService) invalidateHistory(ctx context.Context, room string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, room); err != nil {
		log.Warn().Err(err).Str("room", room).Msg("history cache invalidation failed")
	}
}
