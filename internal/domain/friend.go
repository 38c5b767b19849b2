package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// FriendshipStatus is the state of a friend request
type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
)

// Friendship links two users. UserID is the requester.
type Friendship struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	FriendID  uuid.UUID        `json:"friend_id"`
	Status    FriendshipStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
}

// FriendRepository defines the interface for friendship storage
type FriendRepository interface {
	Create(ctx context.Context, friendship *Friendship) error
	Get(ctx context.Context, userID, friendID uuid.UUID) (*Friendship, error)
	Accept(ctx context.Context, userID, friendID uuid.UUID) error
	ListAccepted(ctx context.Context, userID uuid.UUID) ([]User, error)
}
