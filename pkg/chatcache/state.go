// Package chatcache keeps a client's view of its conversations consistent
// while history pages, live events and its own optimistic sends arrive in any order.
package chatcache

import (
	"sort"
	"time"
)

// Message is one direct message as the client sees it
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Content    string    `json:"content"`
	Read       bool      `json:"read,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (m Message) before(o Message) bool {
	if !m.CreatedAt.Equal(o.CreatedAt) {
		return m.CreatedAt.Before(o.CreatedAt)
	}
	return m.ID < o.ID
}

// Notification is a pushed or fetched notification
type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	SenderID  string    `json:"senderId,omitempty"`
	RelatedID string    `json:"relatedId,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// Conversation is the view of one peer
type Conversation struct {
	Messages []Message
	Unread   int
	Typing   bool
}

// Last returns the newest message, if any
func (c Conversation) Last() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// State is an immutable snapshot. Reduce never modifies a State it was given.
type State struct {
	Self          string
	Active        string
	Conversations map[string]Conversation
	Online        map[string]struct{}
	Notifications []Notification
}

// NewState returns the empty view of user self
func NewState(self string) State {
	return State{
		Self:          self,
		Conversations: map[string]Conversation{},
		Online:        map[string]struct{}{},
	}
}

// Conversation returns the view of peer; unknown peers yield the zero view
func (s State) Conversation(peer string) Conversation {
	return s.Conversations[peer]
}

func (s State) IsOnline(userID string) bool {
	_, ok := s.Online[userID]
	return ok
}

// OnlineIDs returns the online user ids, sorted
func (s State) OnlineIDs() []string {
	ids := make([]string, 0, len(s.Online))
	for id := range s.Online {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TotalUnread sums unread messages over every conversation
func (s State) TotalUnread() int {
	n := 0
	for _, c := range s.Conversations {
		n += c.Unread
	}
	return n
}

// UnreadNotifications counts notifications not yet read
func (s State) UnreadNotifications() int {
	n := 0
	for _, note := range s.Notifications {
		if !note.Read {
			n++
		}
	}
	return n
}

// peerOf returns the other party of m from self's side
func (s State) peerOf(m Message) string {
	if m.SenderID == s.Self {
		return m.ReceiverID
	}
	return m.SenderID
}

func (s State) withConversation(peer string, c Conversation) State {
	convs := make(map[string]Conversation, len(s.Conversations)+1)
	for k, v := range s.Conversations {
		convs[k] = v
	}
	convs[peer] = c
	s.Conversations = convs
	return s
}

func (s State) withOnline(mutate func(map[string]struct{})) State {
	online := make(map[string]struct{}, len(s.Online)+1)
	for k := range s.Online {
		online[k] = struct{}{}
	}
	mutate(online)
	s.Online = online
	return s
}

// merge returns the sorted union of existing and incoming. Incoming wins on equal ids.
func merge(existing, incoming []Message) ([]Message, int) {
	byID := make(map[string]int, len(existing)+len(incoming))
	out := make([]Message, 0, len(existing)+len(incoming))
	for _, m := range existing {
		byID[m.ID] = len(out)
		out = append(out, m)
	}
	added := 0
	for _, m := range incoming {
		if i, ok := byID[m.ID]; ok {
			out[i] = m
			continue
		}
		byID[m.ID] = len(out)
		out = append(out, m)
		added++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].before(out[j]) })
	return out, added
}

// insert adds m in order unless its id is already present
func insert(msgs []Message, m Message) ([]Message, bool) {
	for _, existing := range msgs {
		if existing.ID == m.ID {
			return msgs, false
		}
	}
	i := sort.Search(len(msgs), func(i int) bool { return m.before(msgs[i]) })
	out := make([]Message, 0, len(msgs)+1)
	out = append(out, msgs[:i]...)
	out = append(out, m)
	out = append(out, msgs[i:]...)
	return out, true
}
