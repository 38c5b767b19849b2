package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/artchat/artchat/internal/api/middleware"
	"github.com/artchat/artchat/internal/api/response"
	"github.com/artchat/artchat/internal/domain"
	"github.com/artchat/artchat/internal/service"
)

var validate = validator.New()

// validationErrors flattens validator output into a field -> message map.
func validationErrors(err error) any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	fields := make(map[string]string)
	for _, e := range verrs {
		switch e.Tag() {
		case "required":
			fields[e.Field()] = "field is required"
		case "email":
			fields[e.Field()] = "invalid email format"
		case "min":
			fields[e.Field()] = "must be at least " + e.Param() + " characters"
		case "max":
			fields[e.Field()] = "must be at most " + e.Param() + " characters"
		default:
			fields[e.Field()] = "validation failed on " + e.Tag()
		}
	}
	return fields
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register handles user registration
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input domain.UserCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationErrors(err))
		return
	}

	user, tokens, err := h.authService.Register(r.Context(), input)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			response.Conflict(w, err.Error())
			return
		}
		response.InternalError(w, "registration failed")
		return
	}

	response.Created(w, map[string]any{
		"user":          user,
		"token":         tokens.Token,
		"refresh_token": tokens.RefreshToken,
		"expires_in":    tokens.ExpiresIn,
	})
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input domain.UserLogin
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationErrors(err))
		return
	}

	user, tokens, err := h.authService.Login(r.Context(), input)
	if err != nil {
		if errors.Is(err, domain.ErrAuthFailure) {
			response.Unauthorized(w, "invalid credentials")
			return
		}
		response.InternalError(w, "login failed")
		return
	}

	response.OK(w, map[string]any{
		"user":          user,
		"token":         tokens.Token,
		"refresh_token": tokens.RefreshToken,
		"expires_in":    tokens.ExpiresIn,
	})
}

// Guest creates a guest account
func (h *AuthHandler) Guest(w http.ResponseWriter, r *http.Request) {
	user, tokens, err := h.authService.Guest(r.Context())
	if err != nil {
		response.InternalError(w, "guest login failed")
		return
	}

	response.Created(w, map[string]any{
		"user":          user,
		"token":         tokens.Token,
		"refresh_token": tokens.RefreshToken,
		"expires_in":    tokens.ExpiresIn,
	})
}

// Refresh handles token refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var input struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationErrors(err))
		return
	}

	tokens, err := h.authService.Refresh(r.Context(), input.RefreshToken)
	if err != nil {
		response.Unauthorized(w, "invalid refresh token")
		return
	}

	response.OK(w, tokens)
}

// Logout marks the current user offline
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	if err := h.authService.Logout(r.Context(), userID); err != nil {
		response.InternalError(w, "logout failed")
		return
	}

	response.OK(w, map[string]string{"message": "logged out"})
}

// Me returns the current authenticated user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			response.Unauthorized(w, "user not found")
			return
		}
		response.InternalError(w, "failed to load user")
		return
	}

	response.OK(w, user)
}
