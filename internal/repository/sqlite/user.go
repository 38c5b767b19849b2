package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/artchat/artchat/internal/domain"
	"github.com/google/uuid"
)

// UserRepository implements domain.UserRepository on SQLite
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.sql.ExecContext(ctx, query,
		user.ID.String(),
		user.Email,
		user.Username,
		user.DisplayName,
		user.PasswordHash,
		user.IsGuest,
		user.IsOnline,
		user.AvatarColor,
		user.Bio,
		user.AvatarURL,
		user.LastSeen.UTC(),
		nullableTime(user.LastLogin),
		user.CreatedAt.UTC(),
		user.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID. Returns nil when no row matches.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = ?`, userColumns)
	return r.getOne(ctx, query, id.String())
}

// GetByEmail retrieves a user by email. Returns nil when no row matches.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = ?`, userColumns)
	return r.getOne(ctx, query, email)
}

// GetByUsername retrieves a user by username. Returns nil when no row matches.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE username = ?`, userColumns)
	return r.getOne(ctx, query, username)
}

// Update persists the mutable profile fields
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET username = ?, display_name = ?, avatar_color = ?, bio = ?,
			avatar_url = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := r.db.sql.ExecContext(ctx, query,
		user.Username,
		user.DisplayName,
		user.AvatarColor,
		user.Bio,
		user.AvatarURL,
		time.Now().UTC(),
		user.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	return nil
}

// UpdatePassword replaces the stored password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`

	_, err := r.db.sql.ExecContext(ctx, query, passwordHash, time.Now().UTC(), id.String())
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// SetOnline updates the online flag and last-seen timestamp
func (r *UserRepository) SetOnline(ctx context.Context, id uuid.UUID, online bool, lastSeen time.Time) error {
	query := `UPDATE users SET is_online = ?, last_seen = ? WHERE id = ?`

	_, err := r.db.sql.ExecContext(ctx, query, online, lastSeen.UTC(), id.String())
	if err != nil {
		return fmt.Errorf("failed to set online status: %w", err)
	}

	return nil
}

// RecordLogin stamps the last successful login
func (r *UserRepository) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE users SET last_login = ? WHERE id = ?`

	_, err := r.db.sql.ExecContext(ctx, query, at.UTC(), id.String())
	if err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}

	return nil
}

// ListOnline retrieves all online users except the excluded one
func (r *UserRepository) ListOnline(ctx context.Context, exclude uuid.UUID) ([]domain.User, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM users
		WHERE is_online = TRUE AND id != ?
		ORDER BY display_name
	`, userColumns)

	rows, err := r.db.sql.QueryContext(ctx, query, exclude.String())
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

	return users, rows.Err()
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	user, err := scanUser(r.db.sql.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*domain.User, error) {
	var user domain.User
	var id string
	var lastLogin sql.NullTime

	if err := row.Scan(
		&id,
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
		&lastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", id, err)
	}
	user.ID = parsed
	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLogin = &t
	}

	return &user, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
