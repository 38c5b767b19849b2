package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/artchat/artchat/internal/api/middleware"
	"github.com/artchat/artchat/internal/api/response"
	"github.com/artchat/artchat/internal/domain"
	"github.com/artchat/artchat/internal/service"
)

// FriendHandler handles friendship endpoints
type FriendHandler struct {
	friendService *service.FriendService
}

// NewFriendHandler creates a new friend handler
func NewFriendHandler(friendService *service.FriendService) *FriendHandler {
	return &FriendHandler{friendService: friendService}
}

// List returns the current user's accepted friends
func (h *FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	friends, err := h.friendService.List(r.Context(), userID)
	if err != nil {
		response.InternalError(w, "failed to list friends")
		return
	}

	response.OK(w, map[string]any{"friends": friends})
}

// Add sends a friend request
func (h *FriendHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	friendID, err := uuid.Parse(chi.URLParam(r, "friendID"))
	if err != nil {
		response.BadRequest(w, "invalid friend ID")
		return
	}

	friendship, err := h.friendService.Add(r.Context(), userID, friendID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			response.NotFound(w, "user not found")
		case errors.Is(err, domain.ErrInvalidInput):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w, "failed to add friend")
		}
		return
	}

	response.Created(w, friendship)
}

// Accept accepts a pending friend request
func (h *FriendHandler) Accept(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	friendID, err := uuid.Parse(chi.URLParam(r, "friendID"))
	if err != nil {
		response.BadRequest(w, "invalid friend ID")
		return
	}

	if err := h.friendService.Accept(r.Context(), userID, friendID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			response.NotFound(w, "no pending request from this user")
			return
		}
		response.InternalError(w, "failed to accept friend")
		return
	}

	response.OK(w, map[string]string{"message": "friend request accepted"})
}
