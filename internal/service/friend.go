package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/artchat/artchat/internal/domain"
)

// FriendService handles friend requests and the friends list
type FriendService struct {
	friends domain.FriendRepository
	users   domain.UserRepository
}

// NewFriendService creates a new friend service
func NewFriendService(friends domain.FriendRepository, users domain.UserRepository) *FriendService {
	return &FriendService{
		friends: friends,
		users:   users,
	}
}

// List returns a user's accepted friends
func (s *FriendService) List(ctx context.Context, userID uuid.UUID) ([]domain.User, error) {
	friends, err := s.friends.ListAccepted(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	if friends == nil {
		friends = []domain.User{}
	}
	return friends, nil
}

// Add creates a pending friend request from userID to friendID
func (s *FriendService) Add(ctx context.Context, userID, friendID uuid.UUID) (*domain.Friendship, error) {
	if userID == friendID {
		return nil, fmt.Errorf("%w: cannot befriend yourself", domain.ErrInvalidInput)
	}

	friend, err := s.users.GetByID(ctx, friendID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if friend == nil {
		return nil, domain.ErrUserNotFound
	}

	existing, err := s.friends.Get(ctx, userID, friendID)
	if err != nil {
		return nil, fmt.Errorf("failed to check friendship: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: friend request already exists", domain.ErrInvalidInput)
	}

	friendship := &domain.Friendship{
		ID:        uuid.New(),
		UserID:    userID,
		FriendID:  friendID,
		Status:    domain.FriendshipPending,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.friends.Create(ctx, friendship); err != nil {
		return nil, fmt.Errorf("failed to create friendship: %w", err)
	}

	return friendship, nil
}

// Accept marks the pending request from friendID to userID as accepted
func (s *FriendService) Accept(ctx context.Context, userID, friendID uuid.UUID) error {
	if err := s.friends.Accept(ctx, userID, friendID); err != nil {
		return err
	}
	return nil
}
