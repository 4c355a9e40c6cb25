package livecam

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Submitter runs jobs asynchronously. Submit must not block.
type Submitter interface {
	Submit(job func())
}

// Pool is a bounded worker pool shared by all partitions. Submit never
// blocks; jobs beyond the worker limit wait inside the pool in FIFO order.
type Pool struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

// NewPool returns a pool running at most workers jobs at once.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = DefaultPrefetchWorkers
	}
	return &Pool{sem: semaphore.NewWeighted(int64(workers))}
}

// Submit schedules job. The caller gets no handle back.
func (p *Pool) Submit(job func()) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		// Acquire only fails on a done context.
		_ = p.sem.Acquire(context.Background(), 1)
		defer p.sem.Release(1)
		job()
	}()
}

// Wait blocks until every submitted job has returned.
func (p *Pool) Wait() {
	p.wg.Wait()
}
