package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/artchat/artchat/internal/api/response"
	"github.com/artchat/artchat/internal/chat"
	"github.com/artchat/artchat/internal/config"
	"github.com/artchat/artchat/internal/domain"
	"github.com/artchat/artchat/internal/security"
)

// SocketHandler upgrades HTTP connections to websockets and dispatches
// client events to the session core.
type SocketHandler struct {
	core       *chat.Core
	jwtManager *security.JWTManager
	cfg        config.WSConfig
	upgrader   websocket.Upgrader
}

// NewSocketHandler creates a new socket handler
func NewSocketHandler(core *chat.Core, jwtManager *security.JWTManager, cfg config.WSConfig) *SocketHandler {
	return &SocketHandler{
		core:       core,
		jwtManager: jwtManager,
		cfg:        cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Serve authenticates the request, upgrades it and runs the read/write pumps
func (h *SocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		authHeader := r.Header.Get("Authorization")
		if parts := strings.SplitN(authHeader, " ", 2); len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			token = parts[1]
		}
	}
	if token == "" {
		response.Unauthorized(w, "missing token")
		return
	}

	claims, err := h.jwtManager.ValidateAccessToken(token)
	if err != nil {
		response.Unauthorized(w, "invalid or expired token")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := chat.NewClient(conn, claims.UserID, h.cfg)

	if err := h.core.OnConnect(client.ID, client); err != nil {
		log.Warn().Err(err).Str("conn_id", client.ID).Msg("connect rejected")
		conn.Close()
		return
	}

	log.Info().
		Str("conn_id", client.ID).
		Str("user_id", claims.UserID.String()).
		Msg("websocket connected")

	go client.WritePump()
	client.ReadPump(h.dispatch, func(c *chat.Client) {
		if err := h.core.OnDisconnect(context.Background(), c.ID); err != nil {
			log.Warn().Err(err).Str("conn_id", c.ID).Msg("disconnect cleanup failed")
		}
	})
}

// dispatch routes one inbound frame to the matching core operation. Failures
// go back to the originating connection as an error event; the connection
// stays up.
func (h *SocketHandler) dispatch(client *chat.Client, raw []byte) {
	var envelope domain.Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		h.sendError(client, "invalid message format")
		return
	}

	ctx := context.Background()

	switch envelope.Event {
	case domain.EventJoin:
		var req domain.JoinRequest
		if err := decodeData(envelope.Data, &req); err != nil {
			h.sendError(client, "invalid join payload")
			return
		}

		userID := client.UserID
		if req.UserID != "" {
			parsed, err := uuid.Parse(req.UserID)
			if err != nil {
				h.sendError(client, "invalid user id")
				return
			}
			// The socket identity comes from the token; a join for another
			// user is rejected.
			if parsed != client.UserID {
				h.sendError(client, "user id does not match connection")
				return
			}
			userID = parsed
		}

		if err := h.core.OnJoin(ctx, client.ID, userID, req.Room); err != nil {
			h.sendError(client, joinErrorMessage(err))
		}

	case domain.EventSendMessage:
		var send domain.MessageSend
		if err := decodeData(envelope.Data, &send); err != nil {
			h.sendError(client, "invalid message payload")
			return
		}

		if _, err := h.core.OnSend(ctx, client.ID, send); err != nil {
			h.sendError(client, sendErrorMessage(err))
		}

	case domain.EventLeave:
		if err := h.core.OnLeave(ctx, client.ID); err != nil && !errors.Is(err, domain.ErrNotJoined) {
			h.sendError(client, "failed to leave room")
		}

	default:
		h.sendError(client, "unknown event: "+envelope.Event)
	}
}

func (h *SocketHandler) sendError(client *chat.Client, message string) {
	if err := client.SendEvent(domain.EventError, domain.ErrorPayload{Message: message}); err != nil {
		log.Debug().Err(err).Str("conn_id", client.ID).Msg("error event dropped")
	}
}

func joinErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return "user not found"
	case errors.Is(err, domain.ErrAlreadyDisconnected):
		return "connection is gone"
	default:
		return "failed to join room"
	}
}

func sendErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotJoined):
		return "join a room before sending messages"
	case errors.Is(err, domain.ErrEmptyMessage):
		return "message cannot be empty"
	case errors.Is(err, domain.ErrUserNotFound):
		return "user not found"
	case errors.Is(err, domain.ErrAlreadyDisconnected):
		return "connection is gone"
	default:
		return "failed to send message"
	}
}

// decodeData re-marshals the loosely typed envelope data into a concrete
// payload struct.
func decodeData(data any, dst any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}
