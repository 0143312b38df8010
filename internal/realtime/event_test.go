package realtime

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeInbound(t *testing.T) {
	tests := []struct {
		name     string
		frame    string
		wantName string
		want     Inbound
		wantErr  error
	}{
		{
			name:     "message send",
			frame:    `{"event":"message:send","data":{"receiverId":"bob","content":"hi","id":"m1"}}`,
			wantName: EventMessageSend,
			want:     SendMessage{ID: "m1", ReceiverID: "bob", Content: "hi"},
		},
		{
			name:     "typing start",
			frame:    `{"event":"typing:start","data":{"receiverId":"bob"}}`,
			wantName: EventTypingStart,
			want:     TypingStart{ReceiverID: "bob"},
		},
		{
			name:     "typing stop",
			frame:    `{"event":"typing:stop","data":{"receiverId":"bob"}}`,
			wantName: EventTypingStop,
			want:     TypingStop{ReceiverID: "bob"},
		},
		{
			name:     "notification push",
			frame:    `{"event":"notification:send","data":{"userId":"bob","notification":{"type":"system"}}}`,
			wantName: EventNotificationSend,
			want:     NotificationPush{UserID: "bob", Notification: json.RawMessage(`{"type":"system"}`)},
		},
		{name: "not json", frame: `{"event":`, wantErr: ErrMalformedFrame},
		{name: "array", frame: `[1,2]`, wantErr: ErrMalformedFrame},
		{name: "no event", frame: `{"data":{}}`, wantErr: ErrMissingField},
		{name: "unknown", frame: `{"event":"room:join"}`, wantName: "room:join", wantErr: ErrUnknownEvent},
		{
			name:     "missing id",
			frame:    `{"event":"message:send","data":{"receiverId":"bob","content":"hi"}}`,
			wantName: EventMessageSend,
			wantErr:  ErrMissingField,
		},
		{
			name:     "missing receiver",
			frame:    `{"event":"message:send","data":{"id":"m1","content":"hi"}}`,
			wantName: EventMessageSend,
			wantErr:  ErrMissingField,
		},
		{
			name:     "blank content",
			frame:    `{"event":"message:send","data":{"id":"m1","receiverId":"bob","content":"   "}}`,
			wantName: EventMessageSend,
			wantErr:  ErrMissingField,
		},
		{
			name:     "numeric receiver",
			frame:    `{"event":"typing:start","data":{"receiverId":7}}`,
			wantName: EventTypingStart,
			wantErr:  ErrMissingField,
		},
		{
			name:     "notification not object",
			frame:    `{"event":"notification:send","data":{"userId":"bob","notification":"x"}}`,
			wantName: EventNotificationSend,
			wantErr:  ErrMissingField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, in, err := DecodeInbound([]byte(tt.frame))
			assert.Equal(t, tt.wantName, name)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, in)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, in)
			assert.Equal(t, tt.wantName, in.EventName())
		})
	}
}

func TestDecodeInbound_ContentLimit(t *testing.T) {
	long := strings.Repeat("é", MaxContentLength+1)
	_, _, err := DecodeInbound([]byte(`{"event":"message:send","data":{"id":"m1","receiverId":"bob","content":"` + long + `"}}`))
	assert.Error(t, err)

	ok := strings.Repeat("é", MaxContentLength)
	_, in, err := DecodeInbound([]byte(`{"event":"message:send","data":{"id":"m1","receiverId":"bob","content":"` + ok + `"}}`))
	require.NoError(t, err)
	assert.Equal(t, ok, in.(SendMessage).Content)
}

func TestDecodeInbound_CreatedAt(t *testing.T) {
	_, in, err := DecodeInbound([]byte(`{"event":"message:send","data":{"id":"m1","receiverId":"bob","content":"hi","createdAt":"2024-05-01T10:00:00Z"}}`))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), in.(SendMessage).CreatedAt.UTC())
}

func TestInboundLabel(t *testing.T) {
	for _, name := range []string{EventMessageSend, EventTypingStart, EventTypingStop, EventNotificationSend} {
		assert.Equal(t, name, inboundLabel(name))
	}
	for _, name := range []string{"", "room:join", EventMessageNew, "junk-1"} {
		assert.Equal(t, EventUnknown, inboundLabel(name), name)
	}
}

func TestNewEvent(t *testing.T) {
	ev, err := NewEvent(EventUserTyping, TypingPayload{UserID: "alice", IsTyping: true})
	require.NoError(t, err)
	frame, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"user:typing","data":{"userId":"alice","isTyping":true}}`, string(frame))

	_, err = NewEvent(EventError, make(chan int))
	assert.Error(t, err)
}
