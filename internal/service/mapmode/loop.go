// internal/service/mapmode/loop.go

package mapmode

import (
	"context"
	"sync"
)

// Loop serialises all map callbacks onto one goroutine. Blocking work runs
// on its own goroutine through Go and posts its continuation back.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	pending sync.WaitGroup
}

// NewLoop creates an idle loop
func NewLoop() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
	}
}

// Post queues fn. Safe from any goroutine.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Go runs work on a new goroutine and posts the continuation it returns.
// A nil continuation is skipped.
func (l *Loop) Go(ctx context.Context, work func(ctx context.Context) func()) {
	l.pending.Add(1)
	go func() {
		defer l.pending.Done()

		if next := work(ctx); next != nil {
			l.Post(next)
		}
	}()
}

// Run processes callbacks until ctx is done
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.Drain()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Drain runs the queued callbacks, including ones they queue, and returns
// how many ran. It must not be called concurrently with Run.
func (l *Loop) Drain() int {
	n := 0
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return n
		}
		fn := l.queue[0]
		l.queue = l.queue[1:]
		l.mu.Unlock()

		fn()
		n++
	}
}

// Settle drains the queue and waits for background work until both are
// empty. Used where a caller needs every outstanding effect applied.
func (l *Loop) Settle() {
	for {
		n := l.Drain()
		l.pending.Wait()
		if n == 0 && l.queued() == 0 {
			return
		}
	}
}

func (l *Loop) queued() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}
