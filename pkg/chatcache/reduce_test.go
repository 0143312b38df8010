package chatcache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func msg(id, from, to string, offset int) Message {
	return Message{ID: id, SenderID: from, ReceiverID: to, Content: "content " + id, CreatedAt: t0.Add(time.Duration(offset) * time.Second)}
}

func ids(msgs []Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func apply(s State, actions ...Action) State {
	for _, a := range actions {
		s = Reduce(s, a)
	}
	return s
}

func TestReduce_LiveMessageIsIdempotent(t *testing.T) {
	m := msg("m1", "bob", "alice", 1)
	once := apply(NewState("alice"), MessageReceived{m})
	twice := apply(NewState("alice"), MessageReceived{m}, MessageReceived{m})

	assert.Equal(t, once.Conversation("bob").Messages, twice.Conversation("bob").Messages)
	assert.Equal(t, 1, twice.Conversation("bob").Unread)
}

func TestReduce_LiveMessagesSortedRegardlessOfArrival(t *testing.T) {
	s := apply(NewState("alice"),
		MessageReceived{msg("m3", "bob", "alice", 3)},
		MessageReceived{msg("m1", "bob", "alice", 1)},
		MessageReceived{msg("m2", "alice", "bob", 2)},
	)
	assert.Equal(t, []string{"m1", "m2", "m3"}, ids(s.Conversation("bob").Messages))
}

func TestReduce_EqualTimestampsOrderedByID(t *testing.T) {
	s := apply(NewState("alice"),
		MessageReceived{msg("b", "bob", "alice", 1)},
		MessageReceived{msg("a", "bob", "alice", 1)},
	)
	assert.Equal(t, []string{"a", "b"}, ids(s.Conversation("bob").Messages))
}

func TestReduce_HistoryMergesWithLive(t *testing.T) {
	live := msg("m3", "bob", "alice", 3)
	s := apply(NewState("alice"),
		MessageReceived{live},
		HistoryLoaded{Peer: "bob", Messages: []Message{
			msg("m1", "alice", "bob", 1),
			msg("m2", "bob", "alice", 2),
			live,
		}},
		MessageReceived{live},
	)
	assert.Equal(t, []string{"m1", "m2", "m3"}, ids(s.Conversation("bob").Messages))
}

func TestReduce_HistoryRefreshesStoredCopy(t *testing.T) {
	m := msg("m1", "bob", "alice", 1)
	read := m
	read.Read = true
	s := apply(NewState("alice"), MessageReceived{m}, HistoryLoaded{Peer: "bob", Messages: []Message{read}})

	require.Len(t, s.Conversation("bob").Messages, 1)
	assert.True(t, s.Conversation("bob").Messages[0].Read)
}

func TestReduce_UnreadCounting(t *testing.T) {
	s := NewState("alice")
	for i := 0; i < 5; i++ {
		s = Reduce(s, MessageReceived{msg(fmt.Sprintf("m%d", i), "bob", "alice", i)})
	}
	assert.Equal(t, 5, s.Conversation("bob").Unread)
	assert.Equal(t, 5, s.TotalUnread())

	s = Reduce(s, ConversationOpened{Peer: "bob"})
	assert.Equal(t, 0, s.Conversation("bob").Unread)

	s = Reduce(s, MessageReceived{msg("m9", "bob", "alice", 9)})
	assert.Equal(t, 0, s.Conversation("bob").Unread)

	s = Reduce(s, MessageReceived{msg("c1", "carol", "alice", 10)})
	assert.Equal(t, 1, s.Conversation("carol").Unread)

	s = Reduce(s, ConversationClosed{})
	s = Reduce(s, MessageReceived{msg("m10", "bob", "alice", 11)})
	assert.Equal(t, 1, s.Conversation("bob").Unread)
}

func TestReduce_OwnMessagesNeverUnread(t *testing.T) {
	s := apply(NewState("alice"), MessageReceived{msg("m1", "alice", "bob", 1)})
	assert.Equal(t, 0, s.Conversation("bob").Unread)
	assert.Len(t, s.Conversation("bob").Messages, 1)
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	before := apply(NewState("alice"),
		MessageReceived{msg("m1", "bob", "alice", 1)},
		UserOnline{ID: "bob"},
		NotificationReceived{Notification{ID: "n1"}},
	)
	snapshot := apply(NewState("alice"),
		MessageReceived{msg("m1", "bob", "alice", 1)},
		UserOnline{ID: "bob"},
		NotificationReceived{Notification{ID: "n1"}},
	)

	_ = apply(before,
		MessageReceived{msg("m0", "bob", "alice", 0)},
		TypingChanged{Peer: "bob", Typing: true},
		UserOffline{ID: "bob"},
		UserOnline{ID: "carol"},
		ConversationOpened{Peer: "bob"},
		MessageDeleted{Peer: "bob", ID: "m1"},
		NotificationsRead{},
		HistoryLoaded{Peer: "bob", Messages: []Message{msg("m5", "bob", "alice", 5)}},
	)
	assert.Equal(t, snapshot, before)
}

func TestReduce_TypingLastWriteWins(t *testing.T) {
	s := apply(NewState("alice"), TypingChanged{Peer: "bob", Typing: true})
	assert.True(t, s.Conversation("bob").Typing)

	s = apply(s, TypingChanged{Peer: "bob", Typing: false}, TypingChanged{Peer: "bob", Typing: true})
	assert.True(t, s.Conversation("bob").Typing)

	s = Reduce(s, TypingChanged{Peer: "bob", Typing: false})
	assert.False(t, s.Conversation("bob").Typing)
}

func TestReduce_Presence(t *testing.T) {
	s := apply(NewState("alice"), OnlineSnapshot{IDs: []string{"carol", "bob"}})
	assert.Equal(t, []string{"bob", "carol"}, s.OnlineIDs())

	s = apply(s, UserOnline{ID: "dave"}, UserOnline{ID: "dave"}, UserOffline{ID: "bob"}, UserOffline{ID: "zed"})
	assert.Equal(t, []string{"carol", "dave"}, s.OnlineIDs())
	assert.True(t, s.IsOnline("dave"))
	assert.False(t, s.IsOnline("bob"))
}

func TestReduce_ConversationsLoaded(t *testing.T) {
	last := msg("m7", "bob", "alice", 7)
	s := apply(NewState("alice"),
		ConversationOpened{Peer: "carol"},
		ConversationsLoaded{Summaries: []ConversationSummary{
			{PeerID: "bob", LastMessage: &last, UnreadCount: 3},
			{PeerID: "carol", UnreadCount: 2},
		}},
	)
	assert.Equal(t, 3, s.Conversation("bob").Unread)
	assert.Equal(t, 0, s.Conversation("carol").Unread)
	got, ok := s.Conversation("bob").Last()
	require.True(t, ok)
	assert.Equal(t, "m7", got.ID)
}

func TestReduce_MessageDeleted(t *testing.T) {
	s := apply(NewState("alice"),
		MessageReceived{msg("m1", "bob", "alice", 1)},
		MessageReceived{msg("m2", "alice", "bob", 2)},
		MessageDeleted{Peer: "bob", ID: "m2"},
		MessageDeleted{Peer: "nobody", ID: "m1"},
	)
	assert.Equal(t, []string{"m1"}, ids(s.Conversation("bob").Messages))
}

func TestReduce_Notifications(t *testing.T) {
	s := apply(NewState("alice"),
		NotificationReceived{Notification{ID: "n1", Type: "like"}},
		NotificationReceived{Notification{ID: "n2", Type: "message"}},
		NotificationReceived{Notification{ID: "n1", Type: "like"}},
	)
	require.Len(t, s.Notifications, 2)
	assert.Equal(t, "n2", s.Notifications[0].ID)
	assert.Equal(t, 2, s.UnreadNotifications())

	s = Reduce(s, NotificationsRead{})
	assert.Equal(t, 0, s.UnreadNotifications())
}

func TestReduce_IgnoresMessagesWithoutID(t *testing.T) {
	s := NewState("alice")
	assert.Equal(t, s, Reduce(s, MessageReceived{Message{SenderID: "bob", ReceiverID: "alice"}}))
}

func TestReduce_Cleared(t *testing.T) {
	s := apply(NewState("alice"), MessageReceived{msg("m1", "bob", "alice", 1)}, UserOnline{ID: "bob"}, Cleared{})
	assert.Equal(t, NewState("alice"), s)
}

func TestCache_ConcurrentDispatch(t *testing.T) {
	c := New("alice")
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		changes int
	)
	c.OnChange(func(State) {
		mu.Lock()
		changes++
		mu.Unlock()
	})

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Dispatch(MessageReceived{msg(fmt.Sprintf("m%02d", i), "bob", "alice", i)})
		}(i)
	}
	wg.Wait()

	s := c.State()
	assert.Len(t, s.Conversation("bob").Messages, 20)
	assert.Equal(t, 20, s.Conversation("bob").Unread)
	assert.Equal(t, "m00", s.Conversation("bob").Messages[0].ID)
	assert.Equal(t, 20, changes)
}
