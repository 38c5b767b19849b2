package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/artchat/artchat/internal/domain"
	"github.com/artchat/artchat/internal/security"
)

// guestAvatarColors is the palette guest accounts are assigned from.
var guestAvatarColors = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#FFA07A", "#98D8C8",
	"#F7DC6F", "#BB8FCE", "#85C1E9", "#F8B739", "#52BE80",
}

// AuthService handles registration, login and token lifecycle
type AuthService struct {
	users      domain.UserRepository
	jwtManager *security.JWTManager
}

// NewAuthService creates a new auth service
func NewAuthService(users domain.UserRepository, jwtManager *security.JWTManager) *AuthService {
	return &AuthService{
		users:      users,
		jwtManager: jwtManager,
	}
}

// Register creates a new user account and issues a token pair
func (s *AuthService) Register(ctx context.Context, input domain.UserCreate) (*domain.User, *domain.TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	username := strings.TrimSpace(input.Username)

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, nil, fmt.Errorf("%w: email already registered", domain.ErrInvalidInput)
	}

	existing, err = s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return nil, nil, fmt.Errorf("%w: username already taken", domain.ErrInvalidInput)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		displayName = username
	}
	avatarColor := input.AvatarColor
	if avatarColor == "" {
		avatarColor = guestAvatarColors[rand.Intn(len(guestAvatarColors))]
	}

	now := time.Now().UTC()
	hash := string(hashedPassword)
	user := &domain.User{
		ID:           uuid.New(),
		Email:        &email,
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: &hash,
		IsGuest:      false,
		IsOnline:     true,
		AvatarColor:  avatarColor,
		Bio:          input.Bio,
		AvatarURL:    input.AvatarURL,
		LastSeen:     now,
		LastLogin:    &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	return user, tokens, nil
}

// Login authenticates a user, marks them online and returns tokens
func (s *AuthService) Login(ctx context.Context, input domain.UserLogin) (*domain.User, *domain.TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || user.PasswordHash == nil {
		return nil, nil, domain.ErrAuthFailure
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, nil, domain.ErrAuthFailure
	}

	now := time.Now().UTC()
	if err := s.users.SetOnline(ctx, user.ID, true, now); err != nil {
		return nil, nil, fmt.Errorf("failed to mark user online: %w", err)
	}
	if err := s.users.RecordLogin(ctx, user.ID, now); err != nil {
		return nil, nil, fmt.Errorf("failed to record login: %w", err)
	}
	user.IsOnline = true
	user.LastSeen = now
	user.LastLogin = &now

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	return user, tokens, nil
}

// Guest creates a throwaway guest account and returns tokens. Guest
// usernames follow the Guest_<digits> shape and are retried on collision.
func (s *AuthService) Guest(ctx context.Context) (*domain.User, *domain.TokenPair, error) {
	var username string
	for attempt := 0; attempt < 10; attempt++ {
		candidate := fmt.Sprintf("Guest_%05d", rand.Intn(100000))
		existing, err := s.users.GetByUsername(ctx, candidate)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to check username: %w", err)
		}
		if existing == nil {
			username = candidate
			break
		}
	}
	if username == "" {
		return nil, nil, fmt.Errorf("failed to allocate a guest username")
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:          uuid.New(),
		Username:    username,
		DisplayName: username,
		IsGuest:     true,
		IsOnline:    true,
		AvatarColor: guestAvatarColors[rand.Intn(len(guestAvatarColors))],
		LastSeen:    now,
		LastLogin:   &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("failed to create guest: %w", err)
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	return user, tokens, nil
}

// Refresh exchanges a refresh token for a new token pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	userID, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, domain.ErrAuthFailure
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	return s.issueTokens(user)
}

// Logout marks the user offline
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.SetOnline(ctx, userID, false, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to mark user offline: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by ID
func (s *AuthService) GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *AuthService) issueTokens(user *domain.User) (*domain.TokenPair, error) {
	accessToken, refreshToken, expiresIn, err := s.jwtManager.GenerateTokenPair(user.ID, user.Username, user.IsGuest)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	return &domain.TokenPair{
		Token:        accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
	}, nil
}
