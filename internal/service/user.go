package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/artchat/artchat/internal/domain"
)

// UserService handles profile operations
type UserService struct {
	users domain.UserRepository
}

// NewUserService creates a new user service
func NewUserService(users domain.UserRepository) *UserService {
	return &UserService{users: users}
}

// GetProfile retrieves a user's profile
func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile applies the non-nil fields of the update to the user
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, update domain.ProfileUpdate) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	if update.Username != nil {
		username := strings.TrimSpace(*update.Username)
		if username == "" {
			return nil, fmt.Errorf("%w: username cannot be empty", domain.ErrInvalidInput)
		}
		if username != user.Username {
			existing, err := s.users.GetByUsername(ctx, username)
			if err != nil {
				return nil, fmt.Errorf("failed to check username: %w", err)
			}
			if existing != nil {
				return nil, fmt.Errorf("%w: username already taken", domain.ErrInvalidInput)
			}
			user.Username = username
		}
	}
	if update.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*update.DisplayName)
	}
	if update.AvatarColor != nil {
		user.AvatarColor = *update.AvatarColor
	}
	if update.Bio != nil {
		user.Bio = *update.Bio
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// SetAvatarURL stores the URL of a freshly uploaded avatar
func (s *UserService) SetAvatarURL(ctx context.Context, userID uuid.UUID, url string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	user.AvatarURL = &url
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// ChangePassword verifies the current password and stores a new hash.
// Guest accounts have no password and are rejected.
func (s *UserService) ChangePassword(ctx context.Context, userID uuid.UUID, input domain.PasswordChange) error {
	if input.NewPassword != input.ConfirmPassword {
		return fmt.Errorf("%w: passwords do not match", domain.ErrInvalidInput)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return domain.ErrUserNotFound
	}
	if user.IsGuest || user.PasswordHash == nil {
		return fmt.Errorf("%w: guest accounts have no password", domain.ErrInvalidInput)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(input.CurrentPassword)); err != nil {
		return domain.ErrAuthFailure
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, string(hashed)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// OnlineUsers lists online users other than the requester
func (s *UserService) OnlineUsers(ctx context.Context, exclude uuid.UUID) ([]domain.User, error) {
	users, err := s.users.ListOnline(ctx, exclude)
	if err != nil {
		return nil, fmt.Errorf("failed to list online users: %w", err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}
