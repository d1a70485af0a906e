package vision

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// AcquireTimeout сколько ждать свободную сессию модели.
const AcquireTimeout = 30 * time.Second

// sessionPool пул сессий модели: одна сессия не используется двумя горутинами одновременно.
type sessionPool[S any] struct {
	sessions chan S
	destroy  func(S)
	mu       sync.Mutex
	closed   bool
}

func newSessionPool[S any](size int, create func() (S, error), destroy func(S)) (*sessionPool[S], error) {
	if size <= 0 {
		size = 1
	}

	pool := &sessionPool[S]{
		sessions: make(chan S, size),
		destroy:  destroy,
	}

	for i := 0; i < size; i++ {
		session, err := create()
		if err != nil {
			pool.Destroy()
			return nil, fmt.Errorf("failed to initialize session %d: %w", i, err)
		}
		pool.sessions <- session
	}

	return pool, nil
}

func (p *sessionPool[S]) Acquire(ctx context.Context) (S, error) {
	var zero S

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return zero, fmt.Errorf("pool is closed")
	}

	select {
	case session, ok := <-p.sessions:
		if !ok {
			return zero, fmt.Errorf("pool is closed")
		}
		return session, nil
	case <-time.After(AcquireTimeout):
		return zero, fmt.Errorf("timeout waiting for available session")
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (p *sessionPool[S]) Release(session S) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		p.destroy(session)
		return
	}
	p.sessions <- session
}

func (p *sessionPool[S]) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	p.closed = true
	close(p.sessions)

	for session := range p.sessions {
		p.destroy(session)
	}
}
