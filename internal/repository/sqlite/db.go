package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// DB wraps the embedded SQLite handle. It is the development-mode backend:
// the server originally ran against a single SQLite file and this keeps that
// zero-dependency setup available.
type DB struct {
	sql *sql.DB
}

// NewDB opens (or creates) the SQLite database at path and ensures the schema.
func NewDB(ctx context.Context, path string) (*DB, error) {
	if path == "" {
		path = "artchat.db"
	}

	db, err := sql.Open("sqlite", buildDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	d := &DB{sql: db}
	if err := d.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate sqlite schema: %w", err)
	}

	return d, nil
}

func buildDSN(path string) string {
	if !strings.HasPrefix(path, "file:") && path != ":memory:" {
		path = "file:" + path
	}
	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}
	return path + separator + "_pragma=busy_timeout=5000&_pragma=foreign_keys=ON"
}

// Close releases the underlying handle
func (d *DB) Close() error {
	return d.sql.Close()
}

// Ping verifies database connectivity
func (d *DB) Ping(ctx context.Context) error {
	return d.sql.PingContext(ctx)
}

func (d *DB) migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT UNIQUE,
			username TEXT NOT NULL UNIQUE,
			display_name TEXT NOT NULL,
			password_hash TEXT,
			is_guest BOOLEAN NOT NULL DEFAULT FALSE,
			is_online BOOLEAN NOT NULL DEFAULT FALSE,
			avatar_color TEXT NOT NULL DEFAULT '#6200EE',
			bio TEXT NOT NULL DEFAULT '',
			avatar_url TEXT,
			last_seen DATETIME NOT NULL,
			last_login DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			room TEXT NOT NULL DEFAULT 'global',
			sender_id TEXT NOT NULL REFERENCES users(id),
			sender_name TEXT NOT NULL,
			message_type TEXT NOT NULL DEFAULT 'text',
			content TEXT NOT NULL,
			drawing_url TEXT,
			image_url TEXT,
			timestamp DATETIME NOT NULL,
			is_read BOOLEAN NOT NULL DEFAULT FALSE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_room_timestamp ON messages(room, timestamp);`,
		`CREATE TABLE IF NOT EXISTS friendships (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id),
			friend_id TEXT NOT NULL REFERENCES users(id),
			status TEXT NOT NULL DEFAULT 'pending',
			created_at DATETIME NOT NULL,
			UNIQUE (user_id, friend_id)
		);`,
	}

	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
