package livecam

import (
	"sync"

	"github.com/Thiagojm/entropyd/region"
)

// queue is an unbounded FIFO of regions safe for concurrent push and pop.
type queue struct {
	mu    sync.Mutex
	items []region.Region
	head  int
}

func (q *queue) push(rs ...region.Region) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, rs...)
	return len(q.items) - q.head
}

// pop removes the oldest region. before is the queue length observed just
// before the pop.
func (q *queue) pop() (r region.Region, ok bool, before int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	before = len(q.items) - q.head
	if before == 0 {
		return nil, false, 0
	}
	r = q.items[q.head]
	q.items[q.head] = nil
	q.head++
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	} else if q.head > len(q.items)/2 {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	return r, true, before
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}
