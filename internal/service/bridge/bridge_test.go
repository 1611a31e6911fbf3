package bridge

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/tuskbridge/internal/core"
	"github.com/sandevgo/tuskbridge/internal/providers/engine"
	"github.com/sandevgo/tuskbridge/internal/service/activity"
	"github.com/sandevgo/tuskbridge/internal/session"
	"github.com/sandevgo/tuskbridge/pkg/chunk"
)

type fakeEngine struct {
	run func(ctx context.Context, prompt string, key core.SessionKey) (string, error)
}

func (f *fakeEngine) Run(ctx context.Context, prompt string, key core.SessionKey) (string, error) {
	return f.run(ctx, prompt, key)
}

type recorder struct {
	mu    sync.Mutex
	sent  []string
	fail  map[int]error
	calls int
}

func (r *recorder) send(_ context.Context, fragment string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if err := r.fail[r.calls]; err != nil {
		return err
	}
	r.sent = append(r.sent, fragment)
	return nil
}

func newTestBridge(t *testing.T, eng core.Engine, maxBytes int) *Bridge {
	t.Helper()
	c, err := chunk.New(chunk.Config{MaxBytes: maxBytes, BoundaryRatio: chunk.DefaultBoundaryRatio})
	require.NoError(t, err)
	b, err := NewBridge(eng, c, activity.NewLog(10))
	require.NoError(t, err)
	return b
}

func TestBridge_SingleFragmentReply(t *testing.T) {
	t.Parallel()
	var gotKey core.SessionKey
	eng := &fakeEngine{run: func(_ context.Context, prompt string, key core.SessionKey) (string, error) {
		gotKey = key
		return "echo: " + prompt, nil
	}}
	b := newTestBridge(t, eng, 1000)
	rec := &recorder{}

	err := b.Handle(context.Background(), Inbound{ConversationKey: "telegram-42", User: "ann", Text: "hi"}, rec.send)
	require.NoError(t, err)

	assert.Equal(t, []string{"echo: hi"}, rec.sent)
	assert.Equal(t, session.DeriveKey("telegram-42"), gotKey)

	entries := b.Activity().Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, activity.Inbound, entries[0].Direction)
	assert.Equal(t, "hi", entries[0].Message)
	assert.Equal(t, "ann", entries[0].User)
	assert.Nil(t, entries[0].DurationMs)
	assert.Equal(t, activity.Outbound, entries[1].Direction)
	assert.Equal(t, "echo: hi", entries[1].Message)
	assert.Equal(t, activity.EngineUser, entries[1].User)
	assert.NotNil(t, entries[1].DurationMs)
	assert.Equal(t, gotKey.String(), entries[1].SessionID)
}

func TestBridge_MultiFragmentReply(t *testing.T) {
	t.Parallel()
	reply := strings.Repeat("a", 60) + "\n\n" + strings.Repeat("b", 60)
	eng := &fakeEngine{run: func(context.Context, string, core.SessionKey) (string, error) {
		return reply, nil
	}}
	b := newTestBridge(t, eng, 100)
	rec := &recorder{fail: map[int]error{1: errors.New("flood wait")}}

	require.NoError(t, b.Handle(context.Background(), Inbound{ConversationKey: "c", Text: "go"}, rec.send))

	// The first send failed; the second is still attempted.
	assert.Equal(t, 2, rec.calls)
	require.Len(t, rec.sent, 1)
	assert.Equal(t, chunk.Marker(2, 2)+strings.Repeat("b", 60), rec.sent[0])
}

func TestBridge_EngineFailure(t *testing.T) {
	t.Parallel()
	eng := &fakeEngine{run: func(context.Context, string, core.SessionKey) (string, error) {
		return "", &engine.TimeoutError{Timeout: 2 * time.Minute}
	}}
	b := newTestBridge(t, eng, 1000)
	rec := &recorder{}

	require.NoError(t, b.Handle(context.Background(), Inbound{ConversationKey: "c", User: "bob", Text: "slow"}, rec.send))

	require.Len(t, rec.sent, 1)
	assert.Equal(t, "Sorry, something went wrong:\n\n```\nengine timed out after 2m0s\n```", rec.sent[0])

	entries := b.Activity().Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, activity.Error, entries[1].Direction)
	assert.Equal(t, "engine timed out after 2m0s", entries[1].Message)
	assert.Equal(t, activity.SystemUser, entries[1].User)
}

func TestBridge_BlankAndDefaultKey(t *testing.T) {
	t.Parallel()
	var keys []core.SessionKey
	eng := &fakeEngine{run: func(_ context.Context, _ string, key core.SessionKey) (string, error) {
		keys = append(keys, key)
		return "ok", nil
	}}
	b := newTestBridge(t, eng, 1000)
	rec := &recorder{}
	ctx := context.Background()

	require.NoError(t, b.Handle(ctx, Inbound{ConversationKey: "c", Text: "  \n\t"}, rec.send))
	assert.Empty(t, keys)
	assert.Zero(t, b.Activity().Len())

	require.NoError(t, b.Handle(ctx, Inbound{Text: "hello"}, rec.send))
	require.Len(t, keys, 1)
	assert.Equal(t, session.DeriveKey(DefaultConversation), keys[0])
}

func TestBridge_TypingFailureIgnored(t *testing.T) {
	t.Parallel()
	eng := &fakeEngine{run: func(context.Context, string, core.SessionKey) (string, error) {
		return "ok", nil
	}}
	b := newTestBridge(t, eng, 1000)
	rec := &recorder{}

	typed := false
	msg := Inbound{ConversationKey: "c", Text: "hi", Typing: func(context.Context) error {
		typed = true
		return errors.New("chat not found")
	}}

	require.NoError(t, b.Handle(context.Background(), msg, rec.send))
	assert.True(t, typed)
	assert.Equal(t, []string{"ok"}, rec.sent)
}

func TestBridge_SerializesPerConversation(t *testing.T) {
	t.Parallel()
	var (
		mu     sync.Mutex
		active = map[core.SessionKey]int{}
		peak   = map[core.SessionKey]int{}
		total  atomic.Int32
		maxAll atomic.Int32
	)
	eng := &fakeEngine{run: func(_ context.Context, _ string, key core.SessionKey) (string, error) {
		mu.Lock()
		active[key]++
		peak[key] = max(peak[key], active[key])
		mu.Unlock()

		n := total.Add(1)
		for {
			m := maxAll.Load()
			if n <= m || maxAll.CompareAndSwap(m, n) {
				break
			}
		}

		time.Sleep(20 * time.Millisecond)

		total.Add(-1)
		mu.Lock()
		active[key]--
		mu.Unlock()
		return "ok", nil
	}}
	b := newTestBridge(t, eng, 1000)
	rec := &recorder{}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		for _, conv := range []string{"a", "b"} {
			wg.Add(1)
			go func(conv string) {
				defer wg.Done()
				assert.NoError(t, b.Handle(context.Background(), Inbound{ConversationKey: conv, Text: "x"}, rec.send))
			}(conv)
		}
	}
	wg.Wait()

	assert.Equal(t, 1, peak[session.DeriveKey("a")])
	assert.Equal(t, 1, peak[session.DeriveKey("b")])
	assert.Equal(t, int32(2), maxAll.Load(), "different conversations should run concurrently")
	assert.Len(t, rec.sent, 8)
}

func TestNewBridge_RequiresEngine(t *testing.T) {
	t.Parallel()
	_, err := NewBridge(nil, nil, nil)
	assert.Error(t, err)
}
