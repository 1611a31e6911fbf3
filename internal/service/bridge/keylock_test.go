package bridge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutex_FIFO(t *testing.T) {
	t.Parallel()
	m := NewKeyedMutex()
	ctx := context.Background()

	unlock, err := m.Lock(ctx, "k")
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		order []int
		wg    sync.WaitGroup
	)
	for i := 1; i <= 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			release, err := m.Lock(ctx, "k")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			release()
		}(i)
		// Let waiter i enqueue before i+1.
		require.Eventually(t, func() bool {
			m.mu.Lock()
			defer m.mu.Unlock()
			return len(m.keys["k"].waiters) == i
		}, time.Second, time.Millisecond)
	}

	unlock()
	wg.Wait()

	assert.Equal(t, []int{1, 2, 3, 4, 5}, order)
	assert.Zero(t, m.Held())
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	t.Parallel()
	m := NewKeyedMutex()
	ctx := context.Background()

	a, err := m.Lock(ctx, "a")
	require.NoError(t, err)
	b, err := m.Lock(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 2, m.Held())

	a()
	a()
	b()
	assert.Zero(t, m.Held())
}

func TestKeyedMutex_CancelWhileWaiting(t *testing.T) {
	t.Parallel()
	m := NewKeyedMutex()

	unlock, err := m.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = m.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	assert.Zero(t, m.Held(), "a cancelled waiter must not keep the key")

	again, err := m.Lock(context.Background(), "k")
	require.NoError(t, err)
	again()
}
