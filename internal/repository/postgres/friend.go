package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/artchat/artchat/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// FriendRepository implements domain.FriendRepository
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
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		friendship.ID,
		friendship.UserID,
		friendship.FriendID,
		friendship.Status,
		friendship.CreatedAt,
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
		WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1)
	`

	var f domain.Friendship
	var status string
	err := r.db.Pool.QueryRow(ctx, query, userID, friendID).Scan(
		&f.ID,
		&f.UserID,
		&f.FriendID,
		&status,
		&f.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get friendship: %w", err)
	}
	f.Status = domain.FriendshipStatus(status)

	return &f, nil
}

// Accept marks a pending request from friendID to userID as accepted
func (r *FriendRepository) Accept(ctx context.Context, userID, friendID uuid.UUID) error {
	query := `
		UPDATE friendships
		SET status = $3
		WHERE user_id = $2 AND friend_id = $1 AND status = $4
	`

	tag, err := r.db.Pool.Exec(ctx, query, userID, friendID,
		domain.FriendshipAccepted, domain.FriendshipPending)
	if err != nil {
		return fmt.Errorf("failed to accept friendship: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

// ListAccepted retrieves the users on the other end of every accepted
// friendship involving userID, whichever side sent the request.
func (r *FriendRepository) ListAccepted(ctx context.Context, userID uuid.UUID) ([]domain.User, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM users u
		INNER JOIN friendships f
			ON (f.user_id = $1 AND f.friend_id = u.id)
			OR (f.friend_id = $1 AND f.user_id = u.id)
		WHERE f.status = $2
		ORDER BY u.display_name
	`, prefixedUserColumns("u"))

	rows, err := r.db.Pool.Query(ctx, query, userID, domain.FriendshipAccepted)
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

	return friends, nil
}

func prefixedUserColumns(alias string) string {
	return fmt.Sprintf(`%[1]s.id, %[1]s.email, %[1]s.username, %[1]s.display_name,
		%[1]s.password_hash, %[1]s.is_guest, %[1]s.is_online, %[1]s.avatar_color,
		%[1]s.bio, %[1]s.avatar_url, %[1]s.last_seen, %[1]s.last_login,
		%[1]s.created_at, %[1]s.updated_at`, alias)
}
