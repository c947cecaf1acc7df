// Package queue provides an unbounded FIFO shared between one producer side
// and one consumer side. Push never blocks; Drain never blocks.
package queue

import "sync"

// Queue is an unbounded, goroutine-safe FIFO.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool
	ready  chan struct{}
}

// New creates an empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{ready: make(chan struct{}, 1)}
}

// Push appends an item. It reports false if the queue is closed.
func (q *Queue[T]) Push(item T) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, item)
	q.mu.Unlock()
	q.signal()
	return true
}

// Drain removes and returns everything currently queued, in FIFO order.
// closed reports whether the queue has been closed; items pushed before
// Close are still returned.
func (q *Queue[T]) Drain() (items []T, closed bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	items, q.items = q.items, nil
	return items, q.closed
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Ready receives a value after a Push or Close. It is level-triggered at most
// once per burst, so consumers must Drain after every receive.
func (q *Queue[T]) Ready() <-chan struct{} {
	return q.ready
}

// Close marks the queue closed. Further pushes are rejected.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

// Closed reports whether Close has been called.
func (q *Queue[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

func (q *Queue[T]) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
