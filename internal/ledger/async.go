package ledger

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"budgetbook/internal/core"
)

var ErrListenerClosed = errors.New("async listener closed")

// AsyncListener moves a listener's work off the mutating goroutine. Events
// are queued in a bounded buffer and delivered in order by one worker.
// Enqueueing blocks while the buffer is full. Events arriving after Close
// are dropped.
type AsyncListener struct {
	target registration
	queue  chan func()
	group  errgroup.Group

	mu     sync.RWMutex
	closed bool
}

// NewAsyncListener wraps l with a queue of the given size (minimum 1). The
// callbacks l does not implement are no-ops.
func NewAsyncListener(l any, size int) (*AsyncListener, error) {
	r, err := newRegistration(l)
	if err != nil {
		return nil, err
	}
	if size < 1 {
		size = 1
	}
	a := &AsyncListener{target: r, queue: make(chan func(), size)}
	a.group.Go(func() error {
		for fn := range a.queue {
			fn()
		}
		return nil
	})
	return a, nil
}

func (a *AsyncListener) enqueue(fn func()) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return false
	}
	a.queue <- fn
	return true
}

func (a *AsyncListener) OnTransactionAdded(ctx context.Context, tx core.Transaction) {
	if a.target.added == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	a.enqueue(func() { a.target.added.OnTransactionAdded(ctx, tx) })
}

func (a *AsyncListener) OnTransactionUpdated(ctx context.Context, old, updated core.Transaction) {
	if a.target.updated == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	a.enqueue(func() { a.target.updated.OnTransactionUpdated(ctx, old, updated) })
}

func (a *AsyncListener) OnTransactionRemoved(ctx context.Context, tx core.Transaction) {
	if a.target.removed == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	a.enqueue(func() { a.target.removed.OnTransactionRemoved(ctx, tx) })
}

// Close stops accepting events and waits until the queued ones are
// delivered. A second call returns ErrListenerClosed.
func (a *AsyncListener) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrListenerClosed
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()
	return a.group.Wait()
}
