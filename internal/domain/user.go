package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User represents a registered or guest account
type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        *string    `json:"email"`
	Username     string     `json:"username"`
	DisplayName  string     `json:"display_name"`
	PasswordHash *string    `json:"-"`
	IsGuest      bool       `json:"is_guest"`
	IsOnline     bool       `json:"is_online"`
	AvatarColor  string     `json:"avatar_color"`
	Bio          string     `json:"bio"`
	AvatarURL    *string    `json:"avatar_url"`
	LastSeen     time.Time  `json:"last_seen"`
	LastLogin    *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"-"`
}

// UserCreate represents user registration data
type UserCreate struct {
	Email       string  `json:"email" validate:"required,email,max=120"`
	Password    string  `json:"password" validate:"required,min=6,max=72"`
	Username    string  `json:"username" validate:"required,min=2,max=80"`
	DisplayName string  `json:"display_name" validate:"required,max=80"`
	AvatarColor string  `json:"avatar_color" validate:"omitempty,hexcolor"`
	Bio         string  `json:"bio" validate:"max=200"`
	AvatarURL   *string `json:"avatar_url"`
}

// UserLogin represents login credentials
type UserLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ProfileUpdate carries the mutable profile fields. Nil means "leave as is".
type ProfileUpdate struct {
	Username    *string `json:"username" validate:"omitempty,min=2,max=80"`
	DisplayName *string `json:"display_name" validate:"omitempty,max=80"`
	AvatarColor *string `json:"avatar_color" validate:"omitempty,hexcolor"`
	Bio         *string `json:"bio" validate:"omitempty,max=200"`
}

// PasswordChange represents a password change request
type PasswordChange struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// TokenPair represents the issued JWT tokens
type TokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// UserRepository defines the interface for user storage
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetOnline(ctx context.Context, id uuid.UUID, online bool, lastSeen time.Time) error
	RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	ListOnline(ctx context.Context, exclude uuid.UUID) ([]User, error)
}
