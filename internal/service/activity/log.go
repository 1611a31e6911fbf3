// Package activity keeps a bounded in-memory record of recent bridge traffic
// and fans new entries out to live subscribers.
package activity

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultCapacity = 200

	subscriberBufferSize = 64
	maxMessageRunes      = 500
)

// Authors recorded for entries the bridge itself produces.
const (
	EngineUser = "Claude"
	SystemUser = "system"
)

type Direction string

const (
	Inbound  Direction = "inbound"
	Outbound Direction = "outbound"
	Error    Direction = "error"
)

type Entry struct {
	ID             int64     `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Direction      Direction `json:"direction"`
	User           string    `json:"user"`
	ConversationID string    `json:"conversationId"`
	SessionID      string    `json:"sessionId"`
	Message        string    `json:"message"`
	DurationMs     *int64    `json:"durationMs,omitempty"`
}

// Log is a ring of the most recent entries. It is safe for concurrent use.
type Log struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int
	nextID   int64
	subs     map[string]chan Entry
	closed   bool
	now      func() time.Time
}

func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{
		entries:  make([]Entry, 0, capacity),
		capacity: capacity,
		nextID:   1,
		subs:     make(map[string]chan Entry),
		now:      time.Now,
	}
}

// Add stamps e with the next ID and the current time, stores it and
// publishes it. Subscribers whose buffers are full miss the entry.
func (l *Log) Add(e Entry) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.ID = l.nextID
	l.nextID++
	if e.Timestamp.IsZero() {
		e.Timestamp = l.now()
	}

	if len(l.entries) == l.capacity {
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:len(l.entries)-1]
	}
	l.entries = append(l.entries, e)

	if l.closed {
		return e
	}
	for _, ch := range l.subs {
		select {
		case ch <- e:
		default:
		}
	}
	return e
}

// Entries returns a snapshot, oldest first.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Subscribe returns a channel of entries added from now on. The channel is
// closed when ctx is done or the log is closed.
func (l *Log) Subscribe(ctx context.Context) <-chan Entry {
	ch := make(chan Entry, subscriberBufferSize)

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		close(ch)
		return ch
	}
	id := uuid.NewString()
	l.subs[id] = ch
	l.mu.Unlock()

	go func() {
		<-ctx.Done()
		l.unsubscribe(id)
	}()

	return ch
}

func (l *Log) unsubscribe(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if ch, ok := l.subs[id]; ok {
		delete(l.subs, id)
		close(ch)
	}
}

// Close closes every subscriber channel. Entries can still be added.
func (l *Log) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	for id, ch := range l.subs {
		close(ch)
		delete(l.subs, id)
	}
}

// Truncate shortens s to the outbound preview length.
func Truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxMessageRunes {
		return s
	}
	return string(r[:maxMessageRunes]) + "..."
}
