package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const channelPrefix = "user:"

// ChannelName is the per-user delivery channel
func ChannelName(userID string) string {
	return channelPrefix + userID
}

// Router binds connections to their owner's channel and delivers events.
// Delivery never blocks: a connection whose send buffer is full loses the frame.
type Router struct {
	mu       sync.RWMutex
	channels map[string]map[string]*Client
	logger   *zap.Logger
	rec      Recorder
}

func NewRouter(logger *zap.Logger, rec Recorder) *Router {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Router{
		channels: make(map[string]map[string]*Client),
		logger:   logger.Named("realtime.router"),
		rec:      rec,
	}
}

// Join binds c to its user's channel
func (r *Router) Join(c *Client) {
	name := ChannelName(c.UserID())
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.channels[name]
	if !ok {
		members = make(map[string]*Client)
		r.channels[name] = members
	}
	members[c.ID()] = c
}

// Leave unbinds c. The channel disappears with its last member.
func (r *Router) Leave(c *Client) {
	name := ChannelName(c.UserID())
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.channels[name]
	if !ok {
		return
	}
	delete(members, c.ID())
	if len(members) == 0 {
		delete(r.channels, name)
	}
}

// Members returns the number of connections joined to userID's channel
func (r *Router) Members(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels[ChannelName(userID)])
}

// Publish delivers ev to every connection of userID and returns how many accepted it.
// No live connection is not an error.
func (r *Router) Publish(userID string, ev Event) int {
	frame, ok := r.encode(ev)
	if !ok {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	delivered := 0
	for _, c := range r.channels[ChannelName(userID)] {
		if r.deliver(c, ev.Name, frame) {
			delivered++
		}
	}
	return delivered
}

// BroadcastAll delivers ev to every connection
func (r *Router) BroadcastAll(ev Event) int {
	return r.BroadcastExcept("", ev)
}

// BroadcastExcept delivers ev to every connection but connID
func (r *Router) BroadcastExcept(connID string, ev Event) int {
	frame, ok := r.encode(ev)
	if !ok {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	delivered := 0
	for _, members := range r.channels {
		for id, c := range members {
			if id == connID {
				continue
			}
			if r.deliver(c, ev.Name, frame) {
				delivered++
			}
		}
	}
	return delivered
}

func (r *Router) encode(ev Event) ([]byte, bool) {
	frame, err := json.Marshal(ev)
	if err != nil {
		r.logger.Error("failed to encode event", zap.String("event", ev.Name), zap.Error(err))
		return nil, false
	}
	return frame, true
}

func (r *Router) deliver(c *Client, name string, frame []byte) bool {
	if c.enqueue(frame) {
		r.rec.EventDelivered(name)
		return true
	}
	reason := "buffer_full"
	if c.Closed() {
		reason = "closed"
	}
	r.rec.EventDropped(name, reason)
	r.logger.Warn("dropping event",
		zap.String("event", name),
		zap.String("reason", reason),
		zap.String("user_id", c.UserID()),
		zap.String("conn_id", c.ID()))
	return false
}

// SendTo delivers ev to a single connection
func (r *Router) SendTo(c *Client, ev Event) bool {
	frame, ok := r.encode(ev)
	if !ok {
		return false
	}
	return r.deliver(c, ev.Name, frame)
}
