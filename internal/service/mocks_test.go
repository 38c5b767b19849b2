package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/artchat/artchat/internal/domain"
)

// MockUserRepository mocks the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUserRepository) SetOnline(ctx context.Context, id uuid.UUID, online bool, lastSeen time.Time) error {
	args := m.Called(ctx, id, online, lastSeen)
	return args.Error(0)
}

func (m *MockUserRepository) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockUserRepository) ListOnline(ctx context.Context, exclude uuid.UUID) ([]domain.User, error) {
	args := m.Called(ctx, exclude)
	return args.Get(0).([]domain.User), args.Error(1)
}

// MockMessageRepository mocks the MessageRepository interface
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, message *domain.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockMessageRepository) ListByRoom(ctx context.Context, room string, limit int) ([]domain.Message, error) {
	args := m.Called(ctx, room, limit)
	return args.Get(0).([]domain.Message), args.Error(1)
}

// MockFriendRepository mocks the FriendRepository interface
type MockFriendRepository struct {
	mock.Mock
}

func (m *MockFriendRepository) Create(ctx context.Context, friendship *domain.Friendship) error {
	args := m.Called(ctx, friendship)
	return args.Error(0)
}

func (m *MockFriendRepository) Get(ctx context.Context, userID, friendID uuid.UUID) (*domain.Friendship, error) {
	args := m.Called(ctx, userID, friendID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Friendship), args.Error(1)
}

func (m *MockFriendRepository) Accept(ctx context.Context, userID, friendID uuid.UUID) error {
	args := m.Called(ctx, userID, friendID)
	return args.Error(0)
}

func (m *MockFriendRepository) ListAccepted(ctx context.Context, userID uuid.UUID) ([]domain.User, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.User), args.Error(1)
}
