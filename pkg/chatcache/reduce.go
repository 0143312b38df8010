package chatcache

// Action is an input to Reduce
type Action interface {
	action()
}

// HistoryLoaded merges a fetched page of the conversation with Peer
type HistoryLoaded struct {
	Peer     string
	Messages []Message
}

// MessageReceived applies one live message, or the user's own optimistic send
type MessageReceived struct {
	Message Message
}

// TypingChanged sets whether Peer is typing to us
type TypingChanged struct {
	Peer   string
	Typing bool
}

// OnlineSnapshot replaces the online set
type OnlineSnapshot struct {
	IDs []string
}

type UserOnline struct {
	ID string
}

type UserOffline struct {
	ID string
}

// ConversationOpened makes Peer the active conversation and clears its unread count
type ConversationOpened struct {
	Peer string
}

// ConversationClosed leaves the active conversation
type ConversationClosed struct{}

// ConversationSummary is one inbox row
type ConversationSummary struct {
	PeerID      string
	LastMessage *Message
	UnreadCount int
}

// ConversationsLoaded seeds unread counts and last messages from the inbox
type ConversationsLoaded struct {
	Summaries []ConversationSummary
}

type MessageDeleted struct {
	Peer string
	ID   string
}

// NotificationReceived records a notification, ignoring ids already held
type NotificationReceived struct {
	Notification Notification
}

// NotificationsRead marks every held notification read
type NotificationsRead struct{}

// Cleared drops everything except the identity
type Cleared struct{}

func (HistoryLoaded) action()        {}
func (MessageReceived) action()      {}
func (TypingChanged) action()        {}
func (OnlineSnapshot) action()       {}
func (UserOnline) action()           {}
func (UserOffline) action()          {}
func (ConversationOpened) action()   {}
func (ConversationClosed) action()   {}
func (ConversationsLoaded) action()  {}
func (MessageDeleted) action()       {}
func (NotificationReceived) action() {}
func (NotificationsRead) action()    {}
func (Cleared) action()              {}

// Reduce returns the state after applying a. s is left untouched.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case HistoryLoaded:
		conv := s.Conversation(a.Peer)
		conv.Messages, _ = merge(conv.Messages, a.Messages)
		return s.withConversation(a.Peer, conv)

	case MessageReceived:
		m := a.Message
		peer := s.peerOf(m)
		if peer == "" || m.ID == "" {
			return s
		}
		conv := s.Conversation(peer)
		msgs, added := insert(conv.Messages, m)
		if !added {
			return s
		}
		conv.Messages = msgs
		if m.SenderID != s.Self && peer != s.Active {
			conv.Unread++
		}
		return s.withConversation(peer, conv)

	case TypingChanged:
		conv := s.Conversation(a.Peer)
		if conv.Typing == a.Typing {
			if _, ok := s.Conversations[a.Peer]; ok {
				return s
			}
		}
		conv.Typing = a.Typing
		return s.withConversation(a.Peer, conv)

	case OnlineSnapshot:
		online := make(map[string]struct{}, len(a.IDs))
		for _, id := range a.IDs {
			online[id] = struct{}{}
		}
		s.Online = online
		return s

	case UserOnline:
		if s.IsOnline(a.ID) {
			return s
		}
		return s.withOnline(func(m map[string]struct{}) { m[a.ID] = struct{}{} })

	case UserOffline:
		if !s.IsOnline(a.ID) {
			return s
		}
		return s.withOnline(func(m map[string]struct{}) { delete(m, a.ID) })

	case ConversationOpened:
		s.Active = a.Peer
		conv := s.Conversation(a.Peer)
		conv.Unread = 0
		return s.withConversation(a.Peer, conv)

	case ConversationClosed:
		s.Active = ""
		return s

	case ConversationsLoaded:
		for _, sum := range a.Summaries {
			conv := s.Conversation(sum.PeerID)
			if sum.LastMessage != nil {
				conv.Messages, _ = merge(conv.Messages, []Message{*sum.LastMessage})
			}
			conv.Unread = sum.UnreadCount
			if sum.PeerID == s.Active {
				conv.Unread = 0
			}
			s = s.withConversation(sum.PeerID, conv)
		}
		return s

	case MessageDeleted:
		conv, ok := s.Conversations[a.Peer]
		if !ok {
			return s
		}
		msgs := make([]Message, 0, len(conv.Messages))
		for _, m := range conv.Messages {
			if m.ID != a.ID {
				msgs = append(msgs, m)
			}
		}
		if len(msgs) == len(conv.Messages) {
			return s
		}
		conv.Messages = msgs
		return s.withConversation(a.Peer, conv)

	case NotificationReceived:
		for _, n := range s.Notifications {
			if n.ID == a.Notification.ID {
				return s
			}
		}
		notes := make([]Notification, 0, len(s.Notifications)+1)
		notes = append(notes, a.Notification)
		s.Notifications = append(notes, s.Notifications...)
		return s

	case NotificationsRead:
		notes := make([]Notification, len(s.Notifications))
		for i, n := range s.Notifications {
			n.Read = true
			notes[i] = n
		}
		s.Notifications = notes
		return s

	case Cleared:
		return NewState(s.Self)
	}
	return s
}
