package realtimeclient

import (
	"encoding/json"
	"fmt"

	"github.com/amoylab/familia/internal/realtime"
	"github.com/amoylab/familia/pkg/chatcache"
)

// ToAction maps a server event onto the cache action it implies.
// Events that carry no cache state, such as error, map to nil.
func ToAction(ev realtime.Event) (chatcache.Action, error) {
	switch ev.Name {
	case realtime.EventUsersOnline:
		var ids []string
		if err := decode(ev, &ids); err != nil {
			return nil, err
		}
		return chatcache.OnlineSnapshot{IDs: ids}, nil

	case realtime.EventUserOnline, realtime.EventUserOffline:
		var id string
		if err := decode(ev, &id); err != nil {
			return nil, err
		}
		if ev.Name == realtime.EventUserOnline {
			return chatcache.UserOnline{ID: id}, nil
		}
		return chatcache.UserOffline{ID: id}, nil

	case realtime.EventMessageNew:
		var m chatcache.Message
		if err := decode(ev, &m); err != nil {
			return nil, err
		}
		return chatcache.MessageReceived{Message: m}, nil

	case realtime.EventUserTyping:
		var p realtime.TypingPayload
		if err := decode(ev, &p); err != nil {
			return nil, err
		}
		return chatcache.TypingChanged{Peer: p.UserID, Typing: p.IsTyping}, nil

	case realtime.EventNotificationNew:
		var n chatcache.Notification
		if err := decode(ev, &n); err != nil {
			return nil, err
		}
		return chatcache.NotificationReceived{Notification: n}, nil

	case realtime.EventError:
		return nil, nil
	}
	return nil, fmt.Errorf("unknown event %q", ev.Name)
}

func decode(ev realtime.Event, v any) error {
	if err := json.Unmarshal(ev.Data, v); err != nil {
		return fmt.Errorf("decode %s: %w", ev.Name, err)
	}
	return nil
}
