package realtime

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/amoylab/familia/internal/common/config"
	"github.com/amoylab/familia/internal/common/cnst"
	"github.com/amoylab/familia/pkg/trace"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrHubClosed       = errors.New("hub is shut down")
)

// Verifier resolves a bearer credential to a user id
type Verifier interface {
	Verify(token string) (string, error)
}

// Friendships gates the socket message relay to accepted friends
type Friendships interface {
	AreFriends(ctx context.Context, a, b string) (bool, error)
}

// PresenceHook observes online/offline transitions after they are broadcast
type PresenceHook func(userID string, online bool)

type HubOption func(*Hub)

func WithRecorder(rec Recorder) HubOption {
	return func(h *Hub) {
		if rec != nil {
			h.rec = rec
		}
	}
}

// WithFriendships enables the message:send relay between friends. Without it
// every relayed message is rejected.
func WithFriendships(f Friendships) HubOption {
	return func(h *Hub) {
		h.friends = f
	}
}

func WithPresenceHook(hook PresenceHook) HubOption {
	return func(h *Hub) {
		h.presenceHook = hook
	}
}

// Hub owns the realtime state of one server instance: who is connected,
// where events go, and who is typing to whom.
type Hub struct {
	cfg      config.RealtimeConfig
	verifier Verifier
	bus      Bus
	logger   *zap.Logger
	rec      Recorder

	registry *Registry
	router   *Router
	typing   *TypingTracker

	presenceHook PresenceHook
	friends      Friendships

	serving  sync.WaitGroup
	busClose sync.Once

	// mu serializes attach and detach so each presence check and its broadcast are one step
	mu      sync.Mutex
	clients map[string]*Client
	closed  bool
}

// NewHub builds a hub and subscribes it to bus
func NewHub(cfg config.RealtimeConfig, verifier Verifier, bus Bus, logger *zap.Logger, opts ...HubOption) (*Hub, error) {
	h := &Hub{
		cfg:      cfg,
		verifier: verifier,
		bus:      bus,
		logger:   logger.Named("realtime.hub"),
		rec:      nopRecorder{},
		registry: NewRegistry(),
		clients:  make(map[string]*Client),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.router = NewRouter(logger, h.rec)
	h.typing = NewTypingTracker(cfg.TypingTimeout, h.emitTyping)

	if err := bus.Subscribe(context.Background(), h.deliver); err != nil {
		return nil, fmt.Errorf("failed to subscribe hub: %w", err)
	}
	return h, nil
}

// Authenticate resolves the handshake credential. It never admits an empty token.
func (h *Hub) Authenticate(token string) (string, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return "", ErrUnauthenticated
	}
	userID, err := h.verifier.Verify(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if userID == "" {
		return "", ErrUnauthenticated
	}
	return userID, nil
}

// Attach admits an authenticated connection: it joins the user's channel,
// receives the online snapshot, and everyone else learns the user came online.
func (h *Hub) Attach(c *Client) error {
	return h.admit(c, false)
}

func (h *Hub) admit(c *Client, served bool) error {
	first, err := h.attach(c, served)
	if err != nil {
		return err
	}
	if first && h.presenceHook != nil {
		h.presenceHook(c.UserID(), true)
	}
	return nil
}

func (h *Hub) attach(c *Client, served bool) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false, ErrHubClosed
	}
	if served {
		h.serving.Add(1)
	}

	h.clients[c.ID()] = c
	h.router.Join(c)
	first := h.registry.Register(c.UserID(), c.ID())
	h.rec.ConnectionOpened()
	h.rec.OnlineUsers(h.registry.OnlineCount())

	h.router.SendTo(c, mustEvent(EventUsersOnline, h.registry.Snapshot(c.UserID())))
	if first {
		h.publish(Envelope{Except: c.ID(), Event: mustEvent(EventUserOnline, c.UserID())})
	}

	h.logger.Info("connection attached",
		zap.String("user_id", c.UserID()),
		zap.String("conn_id", c.ID()),
		zap.Bool("became_online", first))
	return first, nil
}

// Detach removes a connection. Removing the user's last connection clears
// their typing indicators and broadcasts user:offline.
func (h *Hub) Detach(c *Client) {
	if h.detach(c) && h.presenceHook != nil {
		h.presenceHook(c.UserID(), false)
	}
}

func (h *Hub) detach(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c.ID()]; !ok {
		return false
	}
	delete(h.clients, c.ID())
	h.router.Leave(c)
	last := h.registry.Unregister(c.UserID(), c.ID())
	h.rec.ConnectionClosed()
	h.rec.OnlineUsers(h.registry.OnlineCount())

	if last {
		h.typing.ClearSender(c.UserID())
		h.publish(Envelope{Event: mustEvent(EventUserOffline, c.UserID())})
	}

	h.logger.Info("connection detached",
		zap.String("user_id", c.UserID()),
		zap.String("conn_id", c.ID()),
		zap.Duration("age", time.Since(c.CreatedAt())),
		zap.Bool("became_offline", last))
	return last
}

// Serve runs the connection until it drops or ctx ends
func (h *Hub) Serve(ctx context.Context, c *Client) error {
	span := trace.Tracer(cnst.TraceRealtime).Start(ctx, cnst.SpanWebSocketSession).
		WithAttrs(attribute.String("user.id", c.UserID()))
	defer span.End()
	ctx = span.Ctx

	if err := h.admit(c, true); err != nil {
		c.Close()
		span.Fail(err)
		return err
	}
	defer func() {
		h.Detach(c)
		c.Close()
		h.serving.Done()
	}()

	go c.writePump(h.logger)
	c.readPump(ctx, h.logger, func(frame []byte) {
		h.Dispatch(ctx, c, frame)
	})
	return nil
}

// Dispatch handles one inbound frame from c. Rejected frames are answered
// with an error event and never close the connection.
func (h *Hub) Dispatch(ctx context.Context, c *Client, frame []byte) {
	name, in, err := DecodeInbound(frame)
	name = inboundLabel(name)
	if err == nil {
		err = h.handle(ctx, c, in)
	}
	if err != nil {
		h.reject(c, name, err)
		return
	}
	h.rec.EventReceived(name, "accepted")
}

func (h *Hub) handle(ctx context.Context, c *Client, in Inbound) error {
	switch ev := in.(type) {
	case SendMessage:
		if ev.ReceiverID == c.UserID() {
			return errors.New("cannot message yourself")
		}
		if err := h.checkFriends(ctx, c.UserID(), ev.ReceiverID); err != nil {
			return err
		}
		if ev.CreatedAt.IsZero() {
			ev.CreatedAt = time.Now().UTC()
		}
		h.typing.Sent(c.UserID(), ev.ReceiverID)
		h.PublishToUser(ctx, ev.ReceiverID, mustEvent(EventMessageNew, RelayedMessage{
			ID:         ev.ID,
			SenderID:   c.UserID(),
			ReceiverID: ev.ReceiverID,
			Content:    ev.Content,
			CreatedAt:  ev.CreatedAt,
		}))
	case TypingStart:
		if ev.ReceiverID == c.UserID() {
			return errors.New("cannot type to yourself")
		}
		h.typing.Start(c.UserID(), ev.ReceiverID)
	case TypingStop:
		h.typing.Stop(c.UserID(), ev.ReceiverID)
	case NotificationPush:
		if !h.cfg.AllowClientNotificationPush {
			return errors.New("client notification push is disabled")
		}
		h.PublishToUser(ctx, ev.UserID, Event{Name: EventNotificationNew, Data: ev.Notification})
	default:
		return ErrUnknownEvent
	}
	return nil
}

func (h *Hub) checkFriends(ctx context.Context, senderID, receiverID string) error {
	if h.friends == nil {
		return errors.New("message relay is disabled")
	}
	ok, err := h.friends.AreFriends(ctx, senderID, receiverID)
	if err != nil {
		h.logger.Error("failed to check friendship",
			zap.String("sender_id", senderID),
			zap.String("receiver_id", receiverID),
			zap.Error(err))
		return errors.New("failed to check friendship")
	}
	if !ok {
		return cnst.ErrNotFriends
	}
	return nil
}

func (h *Hub) reject(c *Client, name string, err error) {
	h.rec.EventReceived(name, "rejected")
	h.logger.Debug("rejected inbound event",
		zap.String("event", name),
		zap.String("conn_id", c.ID()),
		zap.Error(err))
	h.router.SendTo(c, mustEvent(EventError, ErrorPayload{Event: name, Reason: err.Error()}))
}

// PublishToUser pushes ev to every connection of userID. A user without a
// live connection simply misses it.
func (h *Hub) PublishToUser(_ context.Context, userID string, ev Event) {
	h.publish(Envelope{Target: userID, Event: ev})
}

// MessageSent ends sender's typing toward receiver ahead of a message push
func (h *Hub) MessageSent(senderID, receiverID string) {
	h.typing.Sent(senderID, receiverID)
}

// IsOnline reports whether userID holds a connection to this instance
func (h *Hub) IsOnline(userID string) bool {
	return h.registry.IsOnline(userID)
}

// Online returns the ids of users connected to this instance
func (h *Hub) Online() []string {
	return h.registry.Snapshot("")
}

// Shutdown closes every connection. Detach still runs for each as its pumps exit.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	h.typing.Close()
	for _, c := range clients {
		c.Close()
	}
	h.logger.Info("hub shut down", zap.Int("connections", len(clients)))
}

// Close shuts the hub down, waits for served connections to finish detaching
// and then closes the bus. Connections still detaching when ctx ends miss
// their offline broadcast.
func (h *Hub) Close(ctx context.Context) error {
	h.Shutdown()

	drained := make(chan struct{})
	go func() {
		h.serving.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-ctx.Done():
		h.logger.Warn("closing bus before every connection detached", zap.Error(ctx.Err()))
	}

	var err error
	h.busClose.Do(func() {
		err = h.bus.Close()
	})
	return err
}

func (h *Hub) emitTyping(senderID, receiverID string, typing bool) {
	h.publish(Envelope{
		Target: receiverID,
		Event:  mustEvent(EventUserTyping, TypingPayload{UserID: senderID, IsTyping: typing}),
	})
}

func (h *Hub) publish(env Envelope) {
	if err := h.bus.Publish(context.Background(), env); err != nil {
		h.rec.EventDropped(env.Event.Name, "bus")
		h.logger.Error("failed to publish event",
			zap.String("event", env.Event.Name),
			zap.String("target", env.Target),
			zap.Error(err))
	}
}

// deliver is the bus subscriber: it hands envelopes to the local router
func (h *Hub) deliver(env Envelope) {
	switch {
	case env.Target != "":
		h.router.Publish(env.Target, env.Event)
	case env.Except != "":
		h.router.BroadcastExcept(env.Except, env.Event)
	default:
		h.router.BroadcastAll(env.Event)
	}
}
