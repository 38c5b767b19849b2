package chat

import (
	"encoding/json"
	"time"

	"github.com/artchat/artchat/internal/config"
	"github.com/artchat/artchat/internal/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Client is one live websocket connection. It implements Sender: events are
// queued to the send channel and flushed by the write pump, so SendEvent
// never blocks on a slow peer.
type Client struct {
	ID     string
	UserID uuid.UUID

	conn *websocket.Conn
	send chan []byte
	cfg  config.WSConfig
}

// NewClient wraps an upgraded websocket connection. UserID is the identity
// authenticated at upgrade time.
func NewClient(conn *websocket.Conn, userID uuid.UUID, cfg config.WSConfig) *Client {
	return &Client{
		ID:     uuid.New().String(),
		UserID: userID,
		conn:   conn,
		send:   make(chan []byte, cfg.SendQueueSize),
		cfg:    cfg,
	}
}

// SendEvent frames the payload as {"event": ..., "data": ...} and queues it
// for delivery. A full queue drops the event rather than stalling the hub.
func (c *Client) SendEvent(event string, payload any) error {
	data, err := json.Marshal(domain.Envelope{Event: event, Data: payload})
	if err != nil {
		return err
	}

	select {
	case c.send <- data:
		return nil
	default:
		return domain.ErrAlreadyDisconnected
	}
}

// ReadPump reads frames until the connection drops, dispatching each to
// handler. It enforces the read deadline refreshed by pong frames; liveness
// is the transport's concern, not the session core's.
func (c *Client) ReadPump(handler func(*Client, []byte), onClose func(*Client)) {
	defer func() {
		onClose(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Str("conn_id", c.ID).Msg("websocket read error")
			}
			return
		}
		handler(c, message)
	}
}

// WritePump flushes the send queue and keeps the connection alive with
// periodic pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
