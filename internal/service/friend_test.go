package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/artchat/artchat/internal/domain"
)

func TestFriendService_Add(t *testing.T) {
	friends := new(MockFriendRepository)
	users := new(MockUserRepository)
	svc := NewFriendService(friends, users)

	userID := uuid.New()
	friendID := uuid.New()

	users.On("GetByID", mock.Anything, friendID).Return(&domain.User{ID: friendID}, nil)
	friends.On("Get", mock.Anything, userID, friendID).Return(nil, nil)
	friends.On("Create", mock.Anything, mock.AnythingOfType("*domain.Friendship")).Return(nil)

	friendship, err := svc.Add(context.Background(), userID, friendID)
	require.NoError(t, err)

	assert.Equal(t, userID, friendship.UserID)
	assert.Equal(t, friendID, friendship.FriendID)
	assert.Equal(t, domain.FriendshipPending, friendship.Status)
	friends.AssertExpectations(t)
}

func TestFriendService_Add_Self(t *testing.T) {
	friends := new(MockFriendRepository)
	users := new(MockUserRepository)
	svc := NewFriendService(friends, users)

	userID := uuid.New()
	_, err := svc.Add(context.Background(), userID, userID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFriendService_Add_UnknownFriend(t *testing.T) {
	friends := new(MockFriendRepository)
	users := new(MockUserRepository)
	svc := NewFriendService(friends, users)

	friendID := uuid.New()
	users.On("GetByID", mock.Anything, friendID).Return(nil, nil)

	_, err := svc.Add(context.Background(), uuid.New(), friendID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestFriendService_Add_AlreadyExists(t *testing.T) {
	friends := new(MockFriendRepository)
	users := new(MockUserRepository)
	svc := NewFriendService(friends, users)

	userID := uuid.New()
	friendID := uuid.New()

	users.On("GetByID", mock.Anything, friendID).Return(&domain.User{ID: friendID}, nil)
	friends.On("Get", mock.Anything, userID, friendID).
		Return(&domain.Friendship{Status: domain.FriendshipPending}, nil)

	_, err := svc.Add(context.Background(), userID, friendID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	friends.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestFriendService_List(t *testing.T) {
	friends := new(MockFriendRepository)
	users := new(MockUserRepository)
	svc := NewFriendService(friends, users)

	userID := uuid.New()
	friends.On("ListAccepted", mock.Anything, userID).Return([]domain.User(nil), nil)

	got, err := svc.List(context.Background(), userID)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
