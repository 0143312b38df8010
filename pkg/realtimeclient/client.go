// Package realtimeclient connects to the realtime endpoint and keeps a
// chatcache in step with the server's event stream.
package realtimeclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/amoylab/familia/internal/realtime"
	"github.com/amoylab/familia/pkg/chatcache"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var ErrClosed = errors.New("realtime client closed")

// Options tune a Client. Zero values pick defaults.
type Options struct {
	HandshakeTimeout time.Duration
	WriteWait        time.Duration
	// Events receives every decoded server event after it has been applied to the cache
	Events func(realtime.Event)
}

// Client is one connection owned by the user whose token dialed it
type Client struct {
	conn   *websocket.Conn
	cache  *chatcache.Cache
	logger *zap.Logger
	opts   Options

	writeMu sync.Mutex
	done    chan struct{}
	err     error
}

// Dial opens a websocket to endpoint (ws:// or wss://) and starts reading.
// The token is sent both as the token query parameter and as a bearer header.
func Dial(ctx context.Context, endpoint, token string, cache *chatcache.Cache, logger *zap.Logger, opts Options) (*Client, error) {
	if opts.HandshakeTimeout == 0 {
		opts.HandshakeTimeout = 10 * time.Second
	}
	if opts.WriteWait == 0 {
		opts.WriteWait = 10 * time.Second
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: opts.HandshakeTimeout}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, resp, err := dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("handshake failed with status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to dial %s: %w", u.Redacted(), err)
	}

	c := &Client{
		conn:   conn,
		cache:  cache,
		logger: logger.Named("realtimeclient"),
		opts:   opts,
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Cache returns the cache this client feeds
func (c *Client) Cache() *chatcache.Cache { return c.cache }

// Done is closed once the connection stops reading
func (c *Client) Done() <-chan struct{} { return c.done }

// Err returns why the read loop stopped, after Done is closed
func (c *Client) Err() error {
	<-c.done
	return c.err
}

func (c *Client) readLoop() {
	defer close(c.done)
	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.err = err
			}
			return
		}
		var ev realtime.Event
		if err := json.Unmarshal(frame, &ev); err != nil {
			c.logger.Warn("discarding undecodable frame", zap.Error(err))
			continue
		}
		action, err := ToAction(ev)
		if err != nil {
			c.logger.Warn("discarding event", zap.String("event", ev.Name), zap.Error(err))
			continue
		}
		if action != nil {
			c.cache.Dispatch(action)
		}
		if c.opts.Events != nil {
			c.opts.Events(ev)
		}
	}
}

func (c *Client) emit(name string, payload any) error {
	ev, err := realtime.NewEvent(name, payload)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
	return c.conn.WriteJSON(ev)
}

// SendMessage relays content to receiverID over the socket and applies it
// optimistically. It does not persist the message. A missing id is filled
// with a fresh uuid.
func (c *Client) SendMessage(msg chatcache.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if err := c.emit(realtime.EventMessageSend, msg); err != nil {
		return err
	}
	c.cache.Dispatch(chatcache.MessageReceived{Message: msg})
	return nil
}

func (c *Client) StartTyping(receiverID string) error {
	return c.emit(realtime.EventTypingStart, map[string]string{"receiverId": receiverID})
}

func (c *Client) StopTyping(receiverID string) error {
	return c.emit(realtime.EventTypingStop, map[string]string{"receiverId": receiverID})
}

// Close sends a close frame and waits briefly for the server to hang up
func (c *Client) Close() error {
	c.writeMu.Lock()
	err := c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(c.opts.WriteWait))
	c.writeMu.Unlock()

	select {
	case <-c.done:
	case <-time.After(time.Second):
	}
	if cerr := c.conn.Close(); err == nil {
		err = cerr
	}
	if errors.Is(err, websocket.ErrCloseSent) || errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}
