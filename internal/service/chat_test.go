package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/artchat/artchat/internal/chat"
	"github.com/artchat/artchat/internal/domain"
)

// recordingSender captures broadcast events for assertions.
type recordingSender struct {
	events []string
	data   []any
}

func (s *recordingSender) SendEvent(event string, payload any) error {
	s.events = append(s.events, event)
	s.data = append(s.data, payload)
	return nil
}

func newTestBroadcaster() (*chat.Registry, *chat.Broadcaster) {
	registry := chat.NewRegistry()
	return registry, chat.NewBroadcaster(registry)
}

func TestChatService_History(t *testing.T) {
	messages := new(MockMessageRepository)
	users := new(MockUserRepository)
	_, bcast := newTestBroadcaster()
	svc := NewChatService(messages, users, bcast, nil, "", 100)

	stored := []domain.Message{
		{ID: uuid.New(), Room: "global", Content: "first"},
		{ID: uuid.New(), Room: "global", Content: "second"},
	}
	messages.On("ListByRoom", mock.Anything, "global", 100).Return(stored, nil)

	got, err := svc.History(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Equal(t, stored, got)
	messages.AssertExpectations(t)
}

func TestChatService_History_ConfiguredDefaultRoom(t *testing.T) {
	messages := new(MockMessageRepository)
	users := new(MockUserRepository)
	_, bcast := newTestBroadcaster()
	svc := NewChatService(messages, users, bcast, nil, "lobby", 100)

	messages.On("ListByRoom", mock.Anything, "lobby", 100).Return([]domain.Message{}, nil)

	_, err := svc.History(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Equal(t, "lobby", svc.DefaultRoom())
	messages.AssertExpectations(t)
}

func TestChatService_History_ClampsLimit(t *testing.T) {
	messages := new(MockMessageRepository)
	users := new(MockUserRepository)
	_, bcast := newTestBroadcaster()
	svc := NewChatService(messages, users, bcast, nil, "", 100)

	messages.On("ListByRoom", mock.Anything, "global", 100).Return([]domain.Message{}, nil)

	got, err := svc.History(context.Background(), "global", 5000)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestChatService_Post(t *testing.T) {
	messages := new(MockMessageRepository)
	users := new(MockUserRepository)
	registry, bcast := newTestBroadcaster()
	svc := NewChatService(messages, users, bcast, nil, "", 100)

	sender := &domain.User{ID: uuid.New(), Username: "monet", DisplayName: "Claude Monet"}
	users.On("GetByID", mock.Anything, sender.ID).Return(sender, nil)
	messages.On("Create", mock.Anything, mock.AnythingOfType("*domain.Message")).Return(nil)

	// A member of the room should receive the broadcast.
	member := &recordingSender{}
	registry.Register("conn-1", uuid.New(), "global")
	bcast.Attach("conn-1", member)

	message, err := svc.Post(context.Background(), sender.ID, domain.MessageSend{
		Content: "  hello room  ",
	})
	require.NoError(t, err)

	assert.Equal(t, "hello room", message.Content)
	assert.Equal(t, domain.DefaultRoom, message.Room)
	assert.Equal(t, "Claude Monet", message.SenderName)
	assert.Equal(t, domain.MessageTypeText, message.MessageType)
	assert.False(t, message.Timestamp.IsZero())

	require.Len(t, member.events, 1)
	assert.Equal(t, domain.EventNewMessage, member.events[0])
	assert.Same(t, message, member.data[0])

	messages.AssertExpectations(t)
}

func TestChatService_Post_EmptyContent(t *testing.T) {
	messages := new(MockMessageRepository)
	users := new(MockUserRepository)
	_, bcast := newTestBroadcaster()
	svc := NewChatService(messages, users, bcast, nil, "", 100)

	_, err := svc.Post(context.Background(), uuid.New(), domain.MessageSend{Content: "   "})
	assert.ErrorIs(t, err, domain.ErrEmptyMessage)
	messages.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestChatService_Post_UnknownSender(t *testing.T) {
	messages := new(MockMessageRepository)
	users := new(MockUserRepository)
	_, bcast := newTestBroadcaster()
	svc := NewChatService(messages, users, bcast, nil, "", 100)

	senderID := uuid.New()
	users.On("GetByID", mock.Anything, senderID).Return(nil, nil)

	_, err := svc.Post(context.Background(), senderID, domain.MessageSend{Content: "hi"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestChatService_Post_DrawingMessage(t *testing.T) {
	messages := new(MockMessageRepository)
	users := new(MockUserRepository)
	_, bcast := newTestBroadcaster()
	svc := NewChatService(messages, users, bcast, nil, "", 100)

	sender := &domain.User{ID: uuid.New(), DisplayName: "Monet"}
	users.On("GetByID", mock.Anything, sender.ID).Return(sender, nil)
	messages.On("Create", mock.Anything, mock.AnythingOfType("*domain.Message")).Return(nil)

	drawingURL := "/uploads/drawings/abc.png"
	message, err := svc.Post(context.Background(), sender.ID, domain.MessageSend{
		Room:        "atelier",
		Content:     "my sketch",
		MessageType: "drawing",
		DrawingURL:  &drawingURL,
	})
	require.NoError(t, err)

	assert.Equal(t, "atelier", message.Room)
	assert.Equal(t, domain.MessageTypeDrawing, message.MessageType)
	require.NotNil(t, message.DrawingURL)
	assert.Equal(t, drawingURL, *message.DrawingURL)
}

func TestChatService_Create_PassesThrough(t *testing.T) {
	messages := new(MockMessageRepository)
	users := new(MockUserRepository)
	_, bcast := newTestBroadcaster()
	svc := NewChatService(messages, users, bcast, nil, "", 100)

	message := &domain.Message{ID: uuid.New(), Room: "global", Content: "hi", Timestamp: time.Now()}
	messages.On("Create", mock.Anything, message).Return(nil)

	require.NoError(t, svc.Create(context.Background(), message))
	messages.AssertExpectations(t)
}
