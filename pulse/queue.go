package pulse

import "sync"

// SharedQueue guards a native Queue with a mutex. All submissions and
// presentations to the same native queue must go through one SharedQueue.
type SharedQueue struct {
	mu    sync.Mutex
	queue Queue
}

func NewSharedQueue(queue Queue) *SharedQueue {
	return &SharedQueue{queue: queue}
}

// Submit submits while holding the queue lock.
func (q *SharedQueue) Submit(info SubmitInfo) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.queue.Submit(info)
}

// Do runs fn with exclusive access to the native queue. Use it
// to cover a submission and the following present with one lock span.
func (q *SharedQueue) Do(fn func(queue Queue) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	return fn(q.queue)
}

// Held reports whether the queue is currently locked.
func (q *SharedQueue) Held() bool {
	if q.mu.TryLock() {
		q.mu.Unlock()
		return false
	}

	return true
}
