package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(id, userID string, buffer int) *Client {
	return &Client{
		id:      id,
		userID:  userID,
		created: time.Now(),
		send:    make(chan []byte, buffer),
		done:    make(chan struct{}),
	}
}

func decodeFrame(t *testing.T, frame []byte) Event {
	t.Helper()
	var ev Event
	require.NoError(t, json.Unmarshal(frame, &ev))
	return ev
}

// drain returns every frame queued on c, decoded
func drain(t *testing.T, c *Client) []Event {
	t.Helper()
	var events []Event
	for {
		select {
		case frame := <-c.send:
			events = append(events, decodeFrame(t, frame))
		default:
			return events
		}
	}
}

func names(events []Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.Name
	}
	return out
}

func decodeData[T any](t *testing.T, ev Event) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(ev.Data, &v))
	return v
}

type staticVerifier map[string]string

func (v staticVerifier) Verify(token string) (string, error) {
	if id, ok := v[token]; ok {
		return id, nil
	}
	return "", errors.New("invalid token")
}

type verifierFunc func(token string) (string, error)

func (f verifierFunc) Verify(token string) (string, error) { return f(token) }

// friendSet answers AreFriends from a fixed list of pairs, in either order
type friendSet [][2]string

func (f friendSet) AreFriends(_ context.Context, a, b string) (bool, error) {
	for _, p := range f {
		if (p[0] == a && p[1] == b) || (p[0] == b && p[1] == a) {
			return true, nil
		}
	}
	return false, nil
}

type failingFriends struct{}

func (failingFriends) AreFriends(context.Context, string, string) (bool, error) {
	return false, errors.New("database is locked")
}

// closeCountingBus is a LocalBus that counts Close calls
type closeCountingBus struct {
	*LocalBus
	closes int
}

func (b *closeCountingBus) Close() error {
	b.closes++
	return b.LocalBus.Close()
}

type countingRecorder struct {
	opened, closed int
	online         int
	delivered      map[string]int
	dropped        map[string]int
	received       map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		delivered: map[string]int{},
		dropped:   map[string]int{},
		received:  map[string]int{},
	}
}

func (r *countingRecorder) ConnectionOpened() { r.opened++ }
func (r *countingRecorder) ConnectionClosed() { r.closed++ }
func (r *countingRecorder) OnlineUsers(n int) { r.online = n }
func (r *countingRecorder) EventDelivered(event string) { r.delivered[event]++ }
func (r *countingRecorder) EventDropped(event, reason string) { r.dropped[event+"/"+reason]++ }
func (r *countingRecorder) EventReceived(event, status string) {
	r.received[event+"/"+status]++
}
