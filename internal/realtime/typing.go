package realtime

import (
	"sync"
	"time"
)

// TypingEmitter is called on every typing transition of sender toward receiver
type TypingEmitter func(senderID, receiverID string, typing bool)

type typingKey struct {
	sender   string
	receiver string
}

type typingEntry struct {
	gen   uint64
	timer stopper
}

type stopper interface {
	Stop() bool
}

// TypingTracker holds the typing state of every (sender, receiver) pair.
// A pair is typing while an entry exists; idle pairs hold nothing.
//
// Transitions:
//
//	idle   --Start-->           typing (emit true)
//	typing --Start-->           typing (quiet timer rearmed, no emit)
//	typing --quiet timeout-->   idle   (emit false)
//	typing --Stop/Sent-->       idle   (emit false)
//	typing --ClearSender-->     idle   (emit false)
//	idle   --Stop/Sent-->       idle   (no emit)
type TypingTracker struct {
	mu      sync.Mutex
	timeout time.Duration
	emit    TypingEmitter
	pairs   map[typingKey]*typingEntry
	gen     uint64
	closed  bool

	afterFunc func(d time.Duration, f func()) stopper
}

func NewTypingTracker(timeout time.Duration, emit TypingEmitter) *TypingTracker {
	return &TypingTracker{
		timeout: timeout,
		emit:    emit,
		pairs:   make(map[typingKey]*typingEntry),
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
	}
}

// Start records a keystroke from sender toward receiver
func (t *TypingTracker) Start(senderID, receiverID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}

	key := typingKey{senderID, receiverID}
	t.gen++
	gen := t.gen
	timer := t.afterFunc(t.timeout, func() { t.expire(key, gen) })

	if entry, ok := t.pairs[key]; ok {
		entry.timer.Stop()
		entry.gen = gen
		entry.timer = timer
		return
	}
	t.pairs[key] = &typingEntry{gen: gen, timer: timer}
	t.emit(senderID, receiverID, true)
}

// Stop returns the pair to idle
func (t *TypingTracker) Stop(senderID, receiverID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked(typingKey{senderID, receiverID}, true)
}

// Sent is Stop triggered by a message send
func (t *TypingTracker) Sent(senderID, receiverID string) {
	t.Stop(senderID, receiverID)
}

// ClearSender stops every pair where senderID is typing
func (t *TypingTracker) ClearSender(senderID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key := range t.pairs {
		if key.sender == senderID {
			t.stopLocked(key, true)
		}
	}
}

// IsTyping reports whether sender is currently typing toward receiver
func (t *TypingTracker) IsTyping(senderID, receiverID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.pairs[typingKey{senderID, receiverID}]
	return ok
}

// Close cancels every timer without emitting. Later calls are ignored.
func (t *TypingTracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	for key := range t.pairs {
		t.stopLocked(key, false)
	}
}

func (t *TypingTracker) expire(key typingKey, gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.pairs[key]
	if !ok || entry.gen != gen {
		return
	}
	t.stopLocked(key, true)
}

func (t *TypingTracker) stopLocked(key typingKey, notify bool) {
	entry, ok := t.pairs[key]
	if !ok {
		return
	}
	entry.timer.Stop()
	delete(t.pairs, key)
	if notify {
		t.emit(key.sender, key.receiver, false)
	}
}
