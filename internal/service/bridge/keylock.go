package bridge

import (
	"context"
	"slices"
	"sync"
)

type keyState struct {
	waiters []chan struct{}
}

// KeyedMutex is a set of per-key FIFO locks. Entries exist only while a key
// is held, so idle conversations cost nothing.
type KeyedMutex struct {
	mu   sync.Mutex
	keys map[string]*keyState
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{keys: make(map[string]*keyState)}
}

// Lock blocks until key is free or ctx is done. Waiters acquire the key in
// the order they called Lock. The returned func releases the key and is safe
// to call more than once.
func (m *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	st, held := m.keys[key]
	if !held {
		m.keys[key] = &keyState{}
		m.mu.Unlock()
		return m.releaser(key), nil
	}

	ready := make(chan struct{})
	st.waiters = append(st.waiters, ready)
	m.mu.Unlock()

	select {
	case <-ready:
		return m.releaser(key), nil
	case <-ctx.Done():
		m.mu.Lock()
		if i := slices.Index(st.waiters, ready); i >= 0 {
			st.waiters = slices.Delete(st.waiters, i, i+1)
			m.mu.Unlock()
			return nil, ctx.Err()
		}
		m.mu.Unlock()
		// The key was handed over while ctx expired; pass it on.
		m.unlock(key)
		return nil, ctx.Err()
	}
}

// Held reports the number of keys currently locked.
func (m *KeyedMutex) Held() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.keys)
}

func (m *KeyedMutex) releaser(key string) func() {
	var once sync.Once
	return func() {
		once.Do(func() { m.unlock(key) })
	}
}

func (m *KeyedMutex) unlock(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.keys[key]
	if !ok {
		return
	}
	if len(st.waiters) == 0 {
		delete(m.keys, key)
		return
	}

	next := st.waiters[0]
	st.waiters = st.waiters[1:]
	close(next)
}
