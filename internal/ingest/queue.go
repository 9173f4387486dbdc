// Package ingest decouples stream consumers from durable persistence: an
// unbounded FIFO queue fed by many producers and drained by a single writer.
package ingest

import (
	"sync"

	"pairwatch-go/internal/market"
	"pairwatch-go/internal/metrics"
)

// Queue is a multi-producer single-consumer tick buffer. Push never blocks;
// Pop blocks while the queue is open and empty. The queue is unbounded by
// contract — depth is exported as a gauge so growth is observable.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []market.Tick
	closed bool
}

func NewQueue() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends a tick. Pushing to a closed queue is a no-op.
func (q *Queue) Push(tk market.Tick) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.items = append(q.items, tk)
	metrics.QueueDepth.Set(float64(len(q.items)))
	q.cond.Signal()
}

// Pop removes the oldest tick, blocking while the queue is empty. It returns
// false once the queue has been closed and fully drained.
func (q *Queue) Pop() (market.Tick, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 {
		if q.closed {
			return market.Tick{}, false
		}
		q.cond.Wait()
	}
	tk := q.items[0]
	q.items = q.items[1:]
	metrics.QueueDepth.Set(float64(len(q.items)))
	return tk, true
}

// Close stops accepting pushes. Buffered ticks remain poppable so the writer
// can drain before exit.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

// Len reports the current depth.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
