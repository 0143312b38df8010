package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/amoylab/familia/internal/common/config"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Client is one authenticated websocket connection. Its owner is fixed at handshake.
type Client struct {
	id      string
	userID  string
	created time.Time

	conn *websocket.Conn
	cfg  config.RealtimeConfig

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewClient wraps an upgraded connection owned by userID
func NewClient(conn *websocket.Conn, userID string, cfg config.RealtimeConfig) *Client {
	return &Client{
		id:      uuid.NewString(),
		userID:  userID,
		created: time.Now(),
		conn:    conn,
		cfg:     cfg,
		send:    make(chan []byte, cfg.SendBuffer),
		done:    make(chan struct{}),
	}
}

func (c *Client) ID() string           { return c.id }
func (c *Client) UserID() string       { return c.userID }
func (c *Client) CreatedAt() time.Time { return c.created }

// Closed reports whether the connection has been torn down
func (c *Client) Closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Client) enqueue(frame []byte) bool {
	if c.Closed() {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Close stops the write pump and closes the transport. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.cfg.WriteWait))
			_ = c.conn.Close()
		}
	})
}

// readPump feeds every inbound frame to handle until the connection fails or ctx ends
func (c *Client) readPump(ctx context.Context, logger *zap.Logger, handle func([]byte)) {
	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		if ctx.Err() != nil {
			return
		}
		msgType, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) &&
				!errors.Is(err, websocket.ErrCloseSent) {
				logger.Debug("websocket read error", zap.String("conn_id", c.id), zap.Error(err))
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		handle(frame)
	}
}

// writePump drains the send buffer and keeps the connection alive with pings
func (c *Client) writePump(logger *zap.Logger) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				logger.Debug("websocket write failed", zap.String("conn_id", c.id), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Debug("websocket ping failed", zap.String("conn_id", c.id), zap.Error(err))
				return
			}
		case <-c.done:
			return
		}
	}
}
