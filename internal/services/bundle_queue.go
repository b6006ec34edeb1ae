package services

import (
	"sync"

	"github.com/roomradar/rate-shopper/internal/metrics"
)

// BundleQueue is the shared FIFO of pending bundle ids. Dequeue hands each
// id to exactly one worker; waiting workers are woken through a signal
// channel rather than polling.
type BundleQueue struct {
	mu     sync.Mutex
	ids    []uint
	signal chan struct{}
	closed bool
}

// NewBundleQueue creates an empty queue
func NewBundleQueue() *BundleQueue {
	return &BundleQueue{
		signal: make(chan struct{}, 1),
	}
}

// Enqueue appends a bundle id and wakes one waiting worker
func (q *BundleQueue) Enqueue(id uint) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.ids = append(q.ids, id)
	depth := len(q.ids)
	q.mu.Unlock()

	metrics.BundleQueueDepth.Set(float64(depth))

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// TryDequeue claims the oldest bundle id, if any. The second return is
// false when the queue is empty.
func (q *BundleQueue) TryDequeue() (uint, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.ids) == 0 {
		return 0, false
	}
	id := q.ids[0]
	q.ids = q.ids[1:]
	metrics.BundleQueueDepth.Set(float64(len(q.ids)))

	// More work left: keep the signal hot for the next waiter
	if len(q.ids) > 0 {
		select {
		case q.signal <- struct{}{}:
		default:
		}
	}
	return id, true
}

// Wait returns a channel that receives when work may be available
func (q *BundleQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue depth
func (q *BundleQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ids)
}

// Close stops accepting new bundles
func (q *BundleQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}
