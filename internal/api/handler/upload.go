package handler

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/artchat/artchat/internal/api/middleware"
	"github.com/artchat/artchat/internal/api/response"
	"github.com/artchat/artchat/internal/service"
)

// UploadHandler handles file upload endpoints
type UploadHandler struct {
	userService *service.UserService
	uploadDir   string
	maxBytes    int64
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(userService *service.UserService, uploadDir string, maxBytes int64) *UploadHandler {
	// Ensure upload directories exist
	os.MkdirAll(filepath.Join(uploadDir, "avatars"), 0755)
	return &UploadHandler{
		userService: userService,
		uploadDir:   uploadDir,
		maxBytes:    maxBytes,
	}
}

// UploadAvatar stores a new avatar image and updates the user's profile
func (h *UploadHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		response.BadRequest(w, "upload too large")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		response.BadRequest(w, "no file uploaded")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	allowedExts := map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true}
	if !allowedExts[ext] {
		response.BadRequest(w, "invalid file type. Allowed: .png, .jpg, .jpeg, .gif, .webp")
		return
	}

	uniqueName := fmt.Sprintf("%s%s", uuid.New().String(), ext)
	destPath := filepath.Join(h.uploadDir, "avatars", uniqueName)

	dst, err := os.Create(destPath)
	if err != nil {
		response.InternalError(w, "failed to save file")
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(destPath)
		response.InternalError(w, "failed to save file")
		return
	}

	avatarURL := "/uploads/avatars/" + uniqueName
	user, err := h.userService.SetAvatarURL(r.Context(), userID, avatarURL)
	if err != nil {
		os.Remove(destPath)
		response.InternalError(w, "failed to update profile")
		return
	}

	response.OK(w, map[string]any{
		"avatar_url": avatarURL,
		"user":       user,
	})
}
