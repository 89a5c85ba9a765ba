// Package worker provides a small semaphore-bounded pool used to run the
// per-user startup backfills without spawning one unsupervised goroutine per user.
package worker

import "sync"

// Pool limits how many submitted tasks run at once.
type Pool struct {
	sem chan struct{}
	wg  sync.WaitGroup
}

// NewPool creates a pool running at most workers tasks concurrently.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		sem: make(chan struct{}, workers),
	}
}

// Submit schedules task to run once a worker slot frees up. It never blocks
// the caller.
func (p *Pool) Submit(task func()) {
	p.wg.Add(1)
	go func() {
		p.sem <- struct{}{}
		defer func() {
			<-p.sem
			p.wg.Done()
		}()
		task()
	}()
}

// Wait blocks until every submitted task has finished.
func (p *Pool) Wait() {
	p.wg.Wait()
}
