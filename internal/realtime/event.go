package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Client to server events
const (
	EventMessageSend      = "message:send"
	EventTypingStart      = "typing:start"
	EventTypingStop       = "typing:stop"
	EventNotificationSend = "notification:send"

	// EventUnknown labels inbound frames whose name is missing or not one of the above
	EventUnknown = "unknown"
)

// Server to client events
const (
	EventUsersOnline     = "users:online"
	EventUserOnline      = "user:online"
	EventUserOffline     = "user:offline"
	EventMessageNew      = "message:new"
	EventUserTyping      = "user:typing"
	EventNotificationNew = "notification:new"
	EventError           = "error"
)

// MaxContentLength bounds relayed message bodies, in runes
const MaxContentLength = 1000

var (
	ErrMalformedFrame = errors.New("malformed frame")
	ErrUnknownEvent   = errors.New("unknown event")
	ErrMissingField   = errors.New("missing required field")
)

// Event is the wire envelope in both directions: {"event": name, "data": payload}
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEvent marshals payload into an Event
func NewEvent(name string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s: %w", name, err)
	}
	return Event{Name: name, Data: data}, nil
}

func mustEvent(name string, payload any) Event {
	ev, err := NewEvent(name, payload)
	if err != nil {
		panic(err)
	}
	return ev
}

// TypingPayload is the data of user:typing
type TypingPayload struct {
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

// ErrorPayload is the data of an error frame answering a rejected inbound event
type ErrorPayload struct {
	Event  string `json:"event"`
	Reason string `json:"reason"`
}

// RelayedMessage is the data of message:new when relayed from message:send
type RelayedMessage struct {
	ID         string    `json:"id,omitempty"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Inbound is a decoded client event
type Inbound interface {
	EventName() string
}

// SendMessage asks the server to relay a message to ReceiverID's channel
type SendMessage struct {
	ID         string
	ReceiverID string
	Content    string
	CreatedAt  time.Time
}

// TypingStart signals a keystroke toward ReceiverID
type TypingStart struct {
	ReceiverID string
}

// TypingStop signals the sender stopped typing toward ReceiverID
type TypingStop struct {
	ReceiverID string
}

// NotificationPush asks the server to push an opaque notification to UserID
type NotificationPush struct {
	UserID       string
	Notification json.RawMessage
}

func (SendMessage) EventName() string      { return EventMessageSend }
func (TypingStart) EventName() string      { return EventTypingStart }
func (TypingStop) EventName() string       { return EventTypingStop }
func (NotificationPush) EventName() string { return EventNotificationSend }

// DecodeInbound parses a client frame. The returned name is set whenever the
// frame carried one, even if decoding failed, so the caller can report it.
func DecodeInbound(frame []byte) (string, Inbound, error) {
	if !gjson.ValidBytes(frame) {
		return "", nil, ErrMalformedFrame
	}
	root := gjson.ParseBytes(frame)
	if !root.IsObject() {
		return "", nil, ErrMalformedFrame
	}
	nameField := root.Get("event")
	if nameField.Type != gjson.String || nameField.Str == "" {
		return "", nil, fmt.Errorf("%w: event", ErrMissingField)
	}
	name := nameField.Str
	data := root.Get("data")

	switch name {
	case EventMessageSend:
		id, err := requiredString(data, "id")
		if err != nil {
			return name, nil, err
		}
		receiver, err := requiredString(data, "receiverId")
		if err != nil {
			return name, nil, err
		}
		content := data.Get("content").String()
		if strings.TrimSpace(content) == "" {
			return name, nil, fmt.Errorf("%w: content", ErrMissingField)
		}
		if len([]rune(content)) > MaxContentLength {
			return name, nil, fmt.Errorf("content exceeds %d characters", MaxContentLength)
		}
		msg := SendMessage{ID: id, ReceiverID: receiver, Content: content}
		if ts := data.Get("createdAt"); ts.Exists() {
			if t, err := time.Parse(time.RFC3339Nano, ts.String()); err == nil {
				msg.CreatedAt = t
			}
		}
		return name, msg, nil

	case EventTypingStart, EventTypingStop:
		receiver, err := requiredString(data, "receiverId")
		if err != nil {
			return name, nil, err
		}
		if name == EventTypingStart {
			return name, TypingStart{ReceiverID: receiver}, nil
		}
		return name, TypingStop{ReceiverID: receiver}, nil

	case EventNotificationSend:
		userID, err := requiredString(data, "userId")
		if err != nil {
			return name, nil, err
		}
		n := data.Get("notification")
		if !n.IsObject() {
			return name, nil, fmt.Errorf("%w: notification", ErrMissingField)
		}
		return name, NotificationPush{UserID: userID, Notification: json.RawMessage(n.Raw)}, nil

	default:
		return name, nil, fmt.Errorf("%w: %s", ErrUnknownEvent, name)
	}
}

// inboundLabel bounds client-supplied event names to the inbound catalog
func inboundLabel(name string) string {
	switch name {
	case EventMessageSend, EventTypingStart, EventTypingStop, EventNotificationSend:
		return name
	default:
		return EventUnknown
	}
}

func requiredString(data gjson.Result, field string) (string, error) {
	v := data.Get(field)
	if v.Type != gjson.String || strings.TrimSpace(v.Str) == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingField, field)
	}
	return v.Str, nil
}
