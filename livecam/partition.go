package livecam

import "sync"

// partition is one independently buffered group of regions.
//
// mu guards only the refilling flag; the queue carries its own lock.
type partition struct {
	name  string
	queue queue

	mu        sync.Mutex
	refilling bool
}

// tryBeginRefill moves the partition from idle to refilling. It reports
// false when a refill is already in flight.
func (p *partition) tryBeginRefill() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.refilling {
		return false
	}
	p.refilling = true
	return true
}

func (p *partition) endRefill() {
	p.mu.Lock()
	p.refilling = false
	p.mu.Unlock()
}

func (p *partition) isRefilling() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refilling
}
