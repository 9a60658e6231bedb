package worker

import (
	"sync"
	"sync/atomic"
)

type Task func()

// Pool runs submitted tasks on a fixed set of goroutines.
type Pool struct {
	wg      sync.WaitGroup
	jobs    chan Task
	pending atomic.Int64
	mu      sync.RWMutex
	closed  bool
}

func NewPool(workers, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1024
	}
	p := &Pool{jobs: make(chan Task, queueSize)}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				job()
				p.pending.Add(-1)
			}
		}()
	}
	return p
}

// TrySubmit queues the task only if there is room.
func (p *Pool) TrySubmit(f Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	p.pending.Add(1)
	select {
	case p.jobs <- f:
		return true
	default:
		p.pending.Add(-1)
		return false
	}
}

// Pending is the number of queued or running tasks.
func (p *Pool) Pending() int {
	return int(p.pending.Load())
}

// Stop drains the queue and waits for the workers to exit.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}
