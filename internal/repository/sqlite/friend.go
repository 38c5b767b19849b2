package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/artchat/artchat/internal/domain"
	"github.com/google/uuid"
)

// FriendRepository implements domain.FriendRepository on SQLite
type FriendRepository struct {
	db *DB
}

// NewFriendRepository creates a new friend repository
func NewFriendRepository(db *DB) *FriendRepository {
	return &FriendRepository{db: db}
}

// Create inserts a new friendship row
func (r *FriendRepository) Create(ctx context.Context, friendship *domain.Friendship) error {
	query := `
		INSERT INTO friendships (id, user_id, friend_id, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.sql.ExecContext(ctx, query,
		friendship.ID.String(),
		friendship.UserID.String(),
		friendship.FriendID.String(),
		string(friendship.Status),
		friendship.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create friendship: %w", err)
	}

	return nil
}

// Get retrieves the friendship between two users in either direction.
// Returns nil when none exists.
func (r *FriendRepository) Get(ctx context.Context, userID, friendID uuid.UUID) (*domain.Friendship, error) {
	query := `
		SELECT id, user_id, friend_id, status, created_at
		FROM friendships
		WHERE (user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)
	`

	var f domain.Friendship
	var id, uid, fid, status string
	err := r.db.sql.QueryRowContext(ctx, query,
		userID.String(), friendID.String(), friendID.String(), userID.String()).
		Scan(&id, &uid, &fid, &status, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get friendship: %w", err)
	}

	if f.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid friendship id %q: %w", id, err)
	}
	if f.UserID, err = uuid.Parse(uid); err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", uid, err)
	}
	if f.FriendID, err = uuid.Parse(fid); err != nil {
		return nil, fmt.Errorf("invalid friend id %q: %w", fid, err)
	}
	f.Status = domain.FriendshipStatus(status)

	return &f, nil
}

// Accept marks a pending request from friendID to userID as accepted
func (r *FriendRepository) Accept(ctx context.Context, userID, friendID uuid.UUID) error {
	query := `
		UPDATE friendships
		SET status = ?
		WHERE user_id = ? AND friend_id = ? AND status = ?
	`

	result, err := r.db.sql.ExecContext(ctx, query,
		string(domain.FriendshipAccepted),
		friendID.String(), userID.String(),
		string(domain.FriendshipPending),
	)
	if err != nil {
		return fmt.Errorf("failed to accept friendship: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

// ListAccepted retrieves the users on the other end of every accepted
// friendship involving userID, whichever side sent the request.
func (r *FriendRepository) ListAccepted(ctx context.Context, userID uuid.UUID) ([]domain.User, error) {
	query := `
		SELECT u.id, u.email, u.username, u.display_name, u.password_hash, u.is_guest,
			u.is_online, u.avatar_color, u.bio, u.avatar_url, u.last_seen, u.last_login,
			u.created_at, u.updated_at
		FROM users u
		INNER JOIN friendships f
			ON (f.user_id = ? AND f.friend_id = u.id)
			OR (f.friend_id = ? AND f.user_id = u.id)
		WHERE f.status = ?
		ORDER BY u.display_name
	`

	rows, err := r.db.sql.QueryContext(ctx, query,
		userID.String(), userID.String(), string(domain.FriendshipAccepted))
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	defer rows.Close()

	var friends []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		friends = append(friends, *user)
	}

	return friends, rows.Err()
}
