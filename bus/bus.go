// bus.go
package bus

import (
	"context"
	"sync"
)

// -----------------------------------------------------------------------------
// Queue
// -----------------------------------------------------------------------------

// Queue is an unbounded FIFO connecting one directed edge between tasks.
// Put never blocks; Get blocks until an item is available or ctx is done.
// Every item is delivered to exactly one Get.
type Queue[T any] struct {
	name string

	mu     sync.Mutex
	items  []T
	head   int
	closed bool

	// ready holds a token whenever items may be pending.
	ready chan struct{}
}

// NewQueue creates an empty queue. The name is used in logs and metrics.
func NewQueue[T any](name string) *Queue[T] {
	return &Queue[T]{
		name:  name,
		ready: make(chan struct{}, 1),
	}
}

func (q *Queue[T]) Name() string { return q.name }

// Put appends v. It returns false if the queue has been closed.
func (q *Queue[T]) Put(v T) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, v)
	q.mu.Unlock()
	q.signal()
	return true
}

// Get removes and returns the oldest item. It returns ctx.Err() if ctx is
// cancelled first, and ErrClosed once a closed queue has been drained.
// Cancellation never consumes an item.
func (q *Queue[T]) Get(ctx context.Context) (T, error) {
	for {
		if v, ok, err := q.pop(); ok || err != nil {
			return v, err
		}
		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-q.ready:
		}
	}
}

// TryGet removes the oldest item without blocking.
func (q *Queue[T]) TryGet() (T, bool) {
	v, ok, _ := q.pop()
	return v, ok
}

// Len reports the number of pending items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

// Close rejects further Puts. Pending items can still be drained.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

func (q *Queue[T]) pop() (T, bool, error) {
	var zero T
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head == len(q.items) {
		if q.closed {
			return zero, false, ErrClosed
		}
		return zero, false, nil
	}
	v := q.items[q.head]
	q.items[q.head] = zero
	q.head++

	// Compact once the consumed prefix dominates.
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	} else if q.head > 32 && q.head*2 > len(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	if q.head < len(q.items) {
		// More pending: keep the token for the next Get.
		select {
		case q.ready <- struct{}{}:
		default:
		}
	}
	return v, true, nil
}

func (q *Queue[T]) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
