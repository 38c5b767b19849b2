package domain

import "errors"

// Error taxonomy shared by the HTTP and socket surfaces. Handlers branch on
// these with errors.Is; anything unclassified is reported as a generic
// failure without leaking detail.
var (
	// ErrInvalidInput covers missing or malformed required fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyMessage is returned when message content is blank after trimming.
	ErrEmptyMessage = errors.New("message cannot be empty")

	// ErrUserNotFound is returned when a user id or email does not resolve.
	ErrUserNotFound = errors.New("user not found")

	// ErrAuthFailure is returned for invalid credentials or tokens.
	ErrAuthFailure = errors.New("authentication failed")

	// ErrAlreadyDisconnected marks the idempotent no-op of disconnecting a
	// connection that is already gone. Not a failure.
	ErrAlreadyDisconnected = errors.New("connection already disconnected")

	// ErrNotJoined is returned when an operation requires room membership.
	ErrNotJoined = errors.New("connection has not joined a room")
)
