package engine

import (
	"bytes"
	"errors"
	"sync"
)

var errBufferExceeded = errors.New("output buffer exceeded")

// cappedBuffer collects process output up to limit bytes. The write that
// would cross the limit fails and closes the overflow channel.
type cappedBuffer struct {
	mu       sync.Mutex
	buf      bytes.Buffer
	limit    int
	exceeded bool
	overflow chan struct{}
}

func newCappedBuffer(limit int) *cappedBuffer {
	return &cappedBuffer{
		limit:    limit,
		overflow: make(chan struct{}),
	}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.exceeded {
		return 0, errBufferExceeded
	}
	if b.buf.Len()+len(p) > b.limit {
		b.exceeded = true
		close(b.overflow)
		return 0, errBufferExceeded
	}
	return b.buf.Write(p)
}

func (b *cappedBuffer) Overflow() <-chan struct{} {
	return b.overflow
}

func (b *cappedBuffer) Exceeded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.exceeded
}

func (b *cappedBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}

func (b *cappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
