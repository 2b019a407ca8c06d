package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Dosada05/hoops-predictor/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 256
)

// Handler executes chat commands on behalf of an authenticated user.
type Handler interface {
	Send(ctx context.Context, userID int, content string) (*models.ChatMessage, error)
	Edit(ctx context.Context, userID int, messageID int64, content string) (*models.ChatMessage, error)
	Delete(ctx context.Context, userID int, messageID int64) error
}

// Identity is taken from the verified token at connect time.
type Identity struct {
	UserID    int
	ExpiresAt time.Time
}

type Client struct {
	id       string
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	identity Identity
	handler  Handler
	logger   *slog.Logger
	now      func() time.Time
}

func NewClient(hub *Hub, conn *websocket.Conn, identity Identity, handler Handler, logger *slog.Logger) *Client {
	id := uuid.NewString()
	return &Client{
		id:       id,
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		identity: identity,
		handler:  handler,
		logger:   logger.With(slog.String("conn_id", id), slog.Int("user_id", identity.UserID)),
		now:      time.Now,
	}
}

func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("chat connection closed unexpectedly", slog.Any("error", err))
			}
			return
		}
		if !c.dispatch(ctx, message) {
			c.logger.Info("chat token expired, closing connection")
			deadline := time.Now().Add(writeWait)
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "token expired"), deadline)
			return
		}
	}
}

// dispatch handles one client frame and reports whether the connection may stay open.
// Invalid or rejected events are dropped without a reply.
func (c *Client) dispatch(ctx context.Context, raw []byte) bool {
	if !c.identity.ExpiresAt.IsZero() && !c.now().Before(c.identity.ExpiresAt) {
		return false
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.logger.Debug("malformed chat frame ignored", slog.Any("error", err))
		return true
	}

	var err error
	switch env.Type {
	case EventSend:
		var req sendRequest
		if err = json.Unmarshal(env.Data, &req); err == nil {
			_, err = c.handler.Send(ctx, c.identity.UserID, req.Content)
		}
	case EventUpdate:
		var req updateRequest
		if err = json.Unmarshal(env.Data, &req); err == nil {
			_, err = c.handler.Edit(ctx, c.identity.UserID, req.ID, req.Content)
		}
	case EventDelete:
		var req deleteRequest
		if err = json.Unmarshal(env.Data, &req); err == nil {
			err = c.handler.Delete(ctx, c.identity.UserID, req.ID)
		}
	default:
		c.logger.Debug("unknown chat event ignored", slog.String("type", env.Type))
		return true
	}
	if err != nil {
		c.logger.Debug("chat event rejected", slog.String("type", env.Type), slog.Any("error", err))
	}
	return true
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Хаб закрыл канал
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("chat write failed", slog.Any("error", err))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
