package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artchat/artchat/internal/config"
	"github.com/artchat/artchat/internal/domain"
)

// memUserRepo is an in-memory domain.UserRepository.
type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email != nil && *u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) Update(_ context.Context, user *domain.User) error {
	return r.Create(context.Background(), user)
}

func (r *memUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.PasswordHash = &passwordHash
	}
	return nil
}

func (r *memUserRepo) SetOnline(_ context.Context, id uuid.UUID, online bool, lastSeen time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.IsOnline = online
		u.LastSeen = lastSeen
	}
	return nil
}

func (r *memUserRepo) RecordLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.LastLogin = &at
	}
	return nil
}

func (r *memUserRepo) ListOnline(_ context.Context, exclude uuid.UUID) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, u := range r.users {
		if u.IsOnline && u.ID != exclude {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayName < out[j].DisplayName })
	return out, nil
}

// memMessageRepo is an in-memory domain.MessageRepository.
type memMessageRepo struct {
	mu       sync.Mutex
	messages []domain.Message
}

func (r *memMessageRepo) Create(_ context.Context, message *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, *message)
	return nil
}

func (r *memMessageRepo) ListByRoom(_ context.Context, room string, limit int) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Message
	for _, m := range r.messages {
		if m.Room == room {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// memFriendRepo is an in-memory domain.FriendRepository.
type memFriendRepo struct {
	mu          sync.Mutex
	friendships []domain.Friendship
	users       *memUserRepo
}

func (r *memFriendRepo) Create(_ context.Context, friendship *domain.Friendship) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.friendships = append(r.friendships, *friendship)
	return nil
}

func (r *memFriendRepo) Get(_ context.Context, userID, friendID uuid.UUID) (*domain.Friendship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.friendships {
		f := r.friendships[i]
		if (f.UserID == userID && f.FriendID == friendID) || (f.UserID == friendID && f.FriendID == userID) {
			return &f, nil
		}
	}
	return nil, nil
}

func (r *memFriendRepo) Accept(_ context.Context, userID, friendID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.friendships {
		f := &r.friendships[i]
		if f.UserID == friendID && f.FriendID == userID && f.Status == domain.FriendshipPending {
			f.Status = domain.FriendshipAccepted
			return nil
		}
	}
	return domain.ErrUserNotFound
}

func (r *memFriendRepo) ListAccepted(_ context.Context, userID uuid.UUID) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, f := range r.friendships {
		if f.Status != domain.FriendshipAccepted {
			continue
		}
		var other uuid.UUID
		switch userID {
		case f.UserID:
			other = f.FriendID
		case f.FriendID:
			other = f.UserID
		default:
			continue
		}
		if u, _ := r.users.GetByID(context.Background(), other); u != nil {
			out = append(out, *u)
		}
	}
	return out, nil
}

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			MiddlewareTimeout: 10 * time.Second,
		},
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret",
			AccessTokenTTL:  time.Hour,
			RefreshTokenTTL: 24 * time.Hour,
		},
		Chat: config.ChatConfig{
			DefaultRoom:    domain.DefaultRoom,
			HistoryLimit:   100,
			UploadDir:      "",
			MaxUploadBytes: 1 << 20,
			WebSocket: config.WSConfig{
				ReadBufferSize:  1024,
				WriteBufferSize: 1024,
				MaxMessageSize:  65536,
				WriteWait:       10 * time.Second,
				PongWait:        60 * time.Second,
				PingInterval:    25 * time.Second,
				SendQueueSize:   16,
			},
		},
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	users := newMemUserRepo()
	deps := Deps{
		Users:    users,
		Messages: &memMessageRepo{},
		Friends:  &memFriendRepo{users: users},
		DB:       okPinger{},
	}
	cfg := testConfig()
	cfg.Chat.UploadDir = t.TempDir()
	server := httptest.NewServer(NewRouter(cfg, deps))
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func registerUser(t *testing.T, server *httptest.Server, email, username string) (string, string) {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/register", "", map[string]any{
		"email":        email,
		"password":     "secret123",
		"username":     username,
		"display_name": username,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	data := body["data"].(map[string]any)
	token := data["token"].(string)
	userID := data["user"].(map[string]any)["id"].(string)
	return token, userID
}

func TestRouter_Health(t *testing.T) {
	server := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, server.URL+"/api/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
}

func TestRouter_RegisterLoginMe(t *testing.T) {
	server := newTestServer(t)

	token, _ := registerUser(t, server, "monet@example.com", "monet")

	// Duplicate email is rejected.
	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/register", "", map[string]any{
		"email":        "monet@example.com",
		"password":     "secret123",
		"username":     "other",
		"display_name": "Other",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Login with the right password works.
	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/login", "", map[string]any{
		"email":    "monet@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["data"].(map[string]any)["token"])

	// Wrong password is a 401.
	resp, _ = doJSON(t, http.MethodPost, server.URL+"/api/login", "", map[string]any{
		"email":    "monet@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Me requires and honors the token.
	resp, _ = doJSON(t, http.MethodGet, server.URL+"/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, server.URL+"/api/me", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "monet", body["data"].(map[string]any)["username"])
}

func TestRouter_RegisterValidation(t *testing.T) {
	server := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/register", "", map[string]any{
		"email":    "not-an-email",
		"password": "x",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouter_GuestLogin(t *testing.T) {
	server := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/guest", "", nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	data := body["data"].(map[string]any)
	user := data["user"].(map[string]any)
	assert.Equal(t, true, user["is_guest"])
	assert.NotEmpty(t, data["token"])
}

func TestRouter_ChatSendAndHistory(t *testing.T) {
	server := newTestServer(t)
	token, _ := registerUser(t, server, "monet@example.com", "monet")

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/chat/send", token, map[string]any{
		"content": "bonjour",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "bonjour", body["data"].(map[string]any)["content"])

	// Blank content is rejected.
	resp, _ = doJSON(t, http.MethodPost, server.URL+"/api/chat/send", token, map[string]any{
		"content": "   ",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, server.URL+"/api/chat/global/messages", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := body["data"].(map[string]any)
	assert.Equal(t, "global", data["room"])
	messages := data["messages"].([]any)
	require.Len(t, messages, 1)
	assert.Equal(t, "bonjour", messages[0].(map[string]any)["content"])
}

func TestRouter_ProfileUpdateAndPasswordChange(t *testing.T) {
	server := newTestServer(t)
	token, _ := registerUser(t, server, "monet@example.com", "monet")

	resp, body := doJSON(t, http.MethodPut, server.URL+"/api/profile", token, map[string]any{
		"bio": "impressionist",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "impressionist", body["data"].(map[string]any)["bio"])

	resp, _ = doJSON(t, http.MethodPost, server.URL+"/api/change-password", token, map[string]any{
		"current_password": "secret123",
		"new_password":     "secret456",
		"confirm_password": "secret456",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Old password no longer works, new one does.
	resp, _ = doJSON(t, http.MethodPost, server.URL+"/api/login", "", map[string]any{
		"email":    "monet@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, server.URL+"/api/login", "", map[string]any{
		"email":    "monet@example.com",
		"password": "secret456",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_Friends(t *testing.T) {
	server := newTestServer(t)
	aliceToken, _ := registerUser(t, server, "alice@example.com", "alice")
	bobToken, bobID := registerUser(t, server, "bob@example.com", "bob")

	// Alice sends a request to Bob.
	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/friends/add/"+bobID, aliceToken, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "pending", body["data"].(map[string]any)["status"])

	// Bob's list is still empty while the request is pending.
	resp, body = doJSON(t, http.MethodGet, server.URL+"/api/friends", bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["data"].(map[string]any)["friends"])

	// Alice's ID comes from Bob's side via the me endpoint of Alice.
	_, meBody := doJSON(t, http.MethodGet, server.URL+"/api/me", aliceToken, nil)
	aliceID := meBody["data"].(map[string]any)["id"].(string)

	// Bob accepts.
	resp, _ = doJSON(t, http.MethodPost, server.URL+"/api/friends/"+aliceID+"/accept", bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, server.URL+"/api/friends", bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	friends := body["data"].(map[string]any)["friends"].([]any)
	require.Len(t, friends, 1)
	assert.Equal(t, "alice", friends[0].(map[string]any)["username"])
}

func TestRouter_OnlineUsers(t *testing.T) {
	server := newTestServer(t)
	aliceToken, _ := registerUser(t, server, "alice@example.com", "alice")
	registerUser(t, server, "bob@example.com", "bob")

	resp, body := doJSON(t, http.MethodGet, server.URL+"/api/users/online", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	users := body["data"].(map[string]any)["users"].([]any)
	require.Len(t, users, 1)
	assert.Equal(t, "bob", users[0].(map[string]any)["username"])
}
