package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/artchat/artchat/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserRepository implements domain.UserRepository
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, username, display_name, password_hash, is_guest,
	is_online, avatar_color, bio, avatar_url, last_seen, last_login, created_at, updated_at`

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, email, username, display_name, password_hash, is_guest,
			is_online, avatar_color, bio, avatar_url, last_seen, last_login, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Username,
		user.DisplayName,
		user.PasswordHash,
		user.IsGuest,
		user.IsOnline,
		user.AvatarColor,
		user.Bio,
		user.AvatarURL,
		user.LastSeen,
		user.LastLogin,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID. Returns nil when no row matches.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	return r.getOne(ctx, query, id)
}

// GetByEmail retrieves a user by email. Returns nil when no row matches.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)
	return r.getOne(ctx, query, email)
}

// GetByUsername retrieves a user by username. Returns nil when no row matches.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE username = $1`, userColumns)
	return r.getOne(ctx, query, username)
}

// Update persists the mutable profile fields
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET username = $2, display_name = $3, avatar_color = $4, bio = $5,
			avatar_url = $6, updated_at = $7
		WHERE id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.DisplayName,
		user.AvatarColor,
		user.Bio,
		user.AvatarURL,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	return nil
}

// UpdatePassword replaces the stored password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`

	_, err := r.db.Pool.Exec(ctx, query, id, passwordHash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// SetOnline updates the online flag and last-seen timestamp
func (r *UserRepository) SetOnline(ctx context.Context, id uuid.UUID, online bool, lastSeen time.Time) error {
	query := `UPDATE users SET is_online = $2, last_seen = $3 WHERE id = $1`

	_, err := r.db.Pool.Exec(ctx, query, id, online, lastSeen)
	if err != nil {
		return fmt.Errorf("failed to set online status: %w", err)
	}

	return nil
}

// RecordLogin stamps the last successful login
func (r *UserRepository) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE users SET last_login = $2 WHERE id = $1`

	_, err := r.db.Pool.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}

	return nil
}

// ListOnline retrieves all online users except the excluded one
func (r *UserRepository) ListOnline(ctx context.Context, exclude uuid.UUID) ([]domain.User, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM users
		WHERE is_online = TRUE AND id != $1
		ORDER BY display_name
	`, userColumns)

	rows, err := r.db.Pool.Query(ctx, query, exclude)
	if err != nil {
		return nil, fmt.Errorf("failed to list online users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}

	return users, nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	row := r.db.Pool.QueryRow(ctx, query, arg)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.DisplayName,
		&user.PasswordHash,
		&user.IsGuest,
		&user.IsOnline,
		&user.AvatarColor,
		&user.Bio,
		&user.AvatarURL,
		&user.LastSeen,
		&user.LastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &user, nil
}
