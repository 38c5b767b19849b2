package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/artchat/artchat/internal/domain"
	"github.com/artchat/artchat/internal/security"
)

func newTestJWTManager() *security.JWTManager {
	return security.NewJWTManager("test-secret", time.Hour, 24*time.Hour)
}

func hashOf(t *testing.T, password string) *string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	s := string(hashed)
	return &s
}

func TestAuthService_Register(t *testing.T) {
	users := new(MockUserRepository)
	svc := NewAuthService(users, newTestJWTManager())

	users.On("GetByEmail", mock.Anything, "monet@example.com").Return(nil, nil)
	users.On("GetByUsername", mock.Anything, "monet").Return(nil, nil)
	users.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	user, tokens, err := svc.Register(context.Background(), domain.UserCreate{
		Email:    "Monet@Example.com",
		Password: "waterlilies",
		Username: "monet",
	})
	require.NoError(t, err)
	require.NotNil(t, user)
	require.NotNil(t, tokens)

	assert.Equal(t, "monet@example.com", *user.Email)
	assert.Equal(t, "monet", user.Username)
	assert.Equal(t, "monet", user.DisplayName)
	assert.False(t, user.IsGuest)
	assert.True(t, user.IsOnline)
	assert.NotEmpty(t, user.AvatarColor)
	assert.NotEmpty(t, tokens.Token)
	assert.NotEmpty(t, tokens.RefreshToken)

	require.NotNil(t, user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte("waterlilies")))

	users.AssertExpectations(t)
}

func TestAuthService_Register_EmailTaken(t *testing.T) {
	users := new(MockUserRepository)
	svc := NewAuthService(users, newTestJWTManager())

	existing := &domain.User{ID: uuid.New(), Username: "monet"}
	users.On("GetByEmail", mock.Anything, "monet@example.com").Return(existing, nil)

	_, _, err := svc.Register(context.Background(), domain.UserCreate{
		Email:    "monet@example.com",
		Password: "waterlilies",
		Username: "monet2",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_Login(t *testing.T) {
	users := new(MockUserRepository)
	svc := NewAuthService(users, newTestJWTManager())

	userID := uuid.New()
	email := "monet@example.com"
	stored := &domain.User{
		ID:           userID,
		Email:        &email,
		Username:     "monet",
		PasswordHash: hashOf(t, "waterlilies"),
	}

	users.On("GetByEmail", mock.Anything, email).Return(stored, nil)
	users.On("SetOnline", mock.Anything, userID, true, mock.AnythingOfType("time.Time")).Return(nil)
	users.On("RecordLogin", mock.Anything, userID, mock.AnythingOfType("time.Time")).Return(nil)

	user, tokens, err := svc.Login(context.Background(), domain.UserLogin{
		Email:    email,
		Password: "waterlilies",
	})
	require.NoError(t, err)
	assert.True(t, user.IsOnline)
	assert.NotNil(t, user.LastLogin)
	assert.NotEmpty(t, tokens.Token)
	users.AssertExpectations(t)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	users := new(MockUserRepository)
	svc := NewAuthService(users, newTestJWTManager())

	email := "monet@example.com"
	stored := &domain.User{
		ID:           uuid.New(),
		Email:        &email,
		PasswordHash: hashOf(t, "waterlilies"),
	}
	users.On("GetByEmail", mock.Anything, email).Return(stored, nil)

	_, _, err := svc.Login(context.Background(), domain.UserLogin{
		Email:    email,
		Password: "haystacks",
	})
	assert.ErrorIs(t, err, domain.ErrAuthFailure)
	users.AssertNotCalled(t, "SetOnline", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	users := new(MockUserRepository)
	svc := NewAuthService(users, newTestJWTManager())

	users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, nil)

	_, _, err := svc.Login(context.Background(), domain.UserLogin{
		Email:    "ghost@example.com",
		Password: "whatever",
	})
	assert.ErrorIs(t, err, domain.ErrAuthFailure)
}

func TestAuthService_Guest(t *testing.T) {
	users := new(MockUserRepository)
	svc := NewAuthService(users, newTestJWTManager())

	users.On("GetByUsername", mock.Anything, mock.AnythingOfType("string")).Return(nil, nil)
	users.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	user, tokens, err := svc.Guest(context.Background())
	require.NoError(t, err)

	assert.True(t, user.IsGuest)
	assert.True(t, user.IsOnline)
	assert.True(t, strings.HasPrefix(user.Username, "Guest_"))
	assert.Equal(t, user.Username, user.DisplayName)
	assert.Nil(t, user.Email)
	assert.Nil(t, user.PasswordHash)
	assert.NotEmpty(t, tokens.Token)
	users.AssertExpectations(t)
}

func TestAuthService_Refresh(t *testing.T) {
	users := new(MockUserRepository)
	manager := newTestJWTManager()
	svc := NewAuthService(users, manager)

	userID := uuid.New()
	refresh, err := manager.GenerateRefreshToken(userID)
	require.NoError(t, err)

	stored := &domain.User{ID: userID, Username: "monet"}
	users.On("GetByID", mock.Anything, userID).Return(stored, nil)

	tokens, err := svc.Refresh(context.Background(), refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.Token)
	assert.NotEmpty(t, tokens.RefreshToken)
}

func TestAuthService_Refresh_InvalidToken(t *testing.T) {
	users := new(MockUserRepository)
	svc := NewAuthService(users, newTestJWTManager())

	_, err := svc.Refresh(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, domain.ErrAuthFailure)
}

func TestAuthService_Logout(t *testing.T) {
	users := new(MockUserRepository)
	svc := NewAuthService(users, newTestJWTManager())

	userID := uuid.New()
	users.On("SetOnline", mock.Anything, userID, false, mock.AnythingOfType("time.Time")).Return(nil)

	require.NoError(t, svc.Logout(context.Background(), userID))
	users.AssertExpectations(t)
}
