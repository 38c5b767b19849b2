package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/artchat/artchat/internal/api/middleware"
	"github.com/artchat/artchat/internal/api/response"
	"github.com/artchat/artchat/internal/domain"
	"github.com/artchat/artchat/internal/service"
)

// ChatHandler handles message history and the HTTP send path
type ChatHandler struct {
	chatService *service.ChatService
	userService *service.UserService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService, userService *service.UserService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		userService: userService,
	}
}

// History returns recent messages for a room, oldest first
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "room")
	if room == "" {
		room = h.chatService.DefaultRoom()
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(w, "invalid limit")
			return
		}
		limit = parsed
	}

	messages, err := h.chatService.History(r.Context(), room, limit)
	if err != nil {
		response.InternalError(w, "failed to load messages")
		return
	}

	response.OK(w, map[string]any{
		"room":     room,
		"messages": messages,
	})
}

// Send persists and broadcasts a message sent over HTTP
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input domain.MessageSend
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	message, err := h.chatService.Post(r.Context(), userID, input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyMessage):
			response.BadRequest(w, "message cannot be empty")
		case errors.Is(err, domain.ErrUserNotFound):
			response.NotFound(w, "user not found")
		default:
			response.InternalError(w, "failed to send message")
		}
		return
	}

	response.Created(w, message)
}

// OnlineUsers lists online users other than the requester
func (h *ChatHandler) OnlineUsers(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	users, err := h.userService.OnlineUsers(r.Context(), userID)
	if err != nil {
		response.InternalError(w, "failed to list online users")
		return
	}

	response.OK(w, map[string]any{"users": users})
}
