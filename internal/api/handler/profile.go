package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/artchat/artchat/internal/api/middleware"
	"github.com/artchat/artchat/internal/api/response"
	"github.com/artchat/artchat/internal/domain"
	"github.com/artchat/artchat/internal/service"
)

// ProfileHandler handles profile endpoints
type ProfileHandler struct {
	userService *service.UserService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(userService *service.UserService) *ProfileHandler {
	return &ProfileHandler{userService: userService}
}

// Get returns the current user's profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	user, err := h.userService.GetProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			response.NotFound(w, "user not found")
			return
		}
		response.InternalError(w, "failed to load profile")
		return
	}

	response.OK(w, user)
}

// Update applies a partial profile update
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input domain.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationErrors(err))
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), userID, input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			response.Conflict(w, err.Error())
		case errors.Is(err, domain.ErrUserNotFound):
			response.NotFound(w, "user not found")
		default:
			response.InternalError(w, "failed to update profile")
		}
		return
	}

	response.OK(w, user)
}

// ChangePassword replaces the current user's password
func (h *ProfileHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input domain.PasswordChange
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationErrors(err))
		return
	}

	if err := h.userService.ChangePassword(r.Context(), userID, input); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			response.BadRequest(w, err.Error())
		case errors.Is(err, domain.ErrAuthFailure):
			response.Unauthorized(w, "current password is incorrect")
		case errors.Is(err, domain.ErrUserNotFound):
			response.NotFound(w, "user not found")
		default:
			response.InternalError(w, "failed to change password")
		}
		return
	}

	response.OK(w, map[string]string{"message": "password changed"})
}
