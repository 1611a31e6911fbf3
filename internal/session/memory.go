package session

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/sandevgo/tuskbridge/internal/core"
)

type memoryEntry struct {
	token    string
	lastUsed time.Time
	element  *list.Element
}

// MemoryStore is the in-process session registry. It starts empty and is
// lost on restart. With zero MaxEntries and TTL it never evicts.
type MemoryStore struct {
	mu         sync.Mutex
	entries    map[core.SessionKey]*memoryEntry
	order      *list.List // least recently used at front
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
}

type MemoryOption func(*MemoryStore)

// WithMaxEntries bounds the store; the least recently used key is evicted
// when a new key would exceed n.
func WithMaxEntries(n int) MemoryOption {
	return func(s *MemoryStore) { s.maxEntries = n }
}

// WithTTL expires keys that have not been read or written for ttl.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(s *MemoryStore) { s.ttl = ttl }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[core.SessionKey]*memoryEntry),
		order:   list.New(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, key core.SessionKey) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return "", false, nil
	}

	now := s.now()
	if s.expired(entry, now) {
		s.removeLocked(key, entry)
		return "", false, nil
	}

	entry.lastUsed = now
	s.order.MoveToBack(entry.element)
	return entry.token, true, nil
}

func (s *MemoryStore) Put(_ context.Context, key core.SessionKey, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if entry, ok := s.entries[key]; ok {
		entry.token = token
		entry.lastUsed = now
		s.order.MoveToBack(entry.element)
		return nil
	}

	if s.maxEntries > 0 {
		for len(s.entries) >= s.maxEntries {
			s.evictOldestLocked()
		}
	}

	s.entries[key] = &memoryEntry{
		token:    token,
		lastUsed: now,
		element:  s.order.PushBack(key),
	}
	return nil
}

// Len returns the number of stored keys, expired ones included until touched.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) expired(entry *memoryEntry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(entry.lastUsed) > s.ttl
}

func (s *MemoryStore) evictOldestLocked() {
	front := s.order.Front()
	if front == nil {
		return
	}
	key, _ := front.Value.(core.SessionKey)
	s.removeLocked(key, s.entries[key])
}

func (s *MemoryStore) removeLocked(key core.SessionKey, entry *memoryEntry) {
	if entry != nil {
		s.order.Remove(entry.element)
	}
	delete(s.entries, key)
}
