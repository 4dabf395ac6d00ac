// Package performance provides concurrency utilities for batch work.
package performance

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool manages a fixed set of workers for concurrent task
// execution. Batch signal generation fans out per-symbol work here so
// goroutines are reused across requests.
type WorkerPool struct {
	workers   int
	taskQueue chan func()
	wg        sync.WaitGroup

	mu      sync.Mutex
	running bool

	tasksTotal atomic.Uint64
	tasksDone  atomic.Uint64
}

// NewWorkerPool creates a pool with the given number of workers.
// Zero or negative defaults to runtime.NumCPU().
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &WorkerPool{
		workers:   workers,
		taskQueue: make(chan func(), workers*100),
	}
}

// Start launches the workers. Safe to call more than once.
func (p *WorkerPool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()

	for task := range p.taskQueue {
		task()
		p.tasksDone.Add(1)
	}
}

// Submit enqueues a task. Returns false if the pool is stopped or the
// queue is full.
func (p *WorkerPool) Submit(task func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return false
	}

	select {
	case p.taskQueue <- task:
		p.tasksTotal.Add(1)
		return true
	default:
		return false
	}
}

// Stop closes the queue and waits for the workers. Every task accepted
// by Submit runs before Stop returns.
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.taskQueue)
	p.mu.Unlock()

	p.wg.Wait()
}

// Stats returns a snapshot of pool counters.
func (p *WorkerPool) Stats() PoolStats {
	p.mu.Lock()
	running := p.running
	p.mu.Unlock()

	return PoolStats{
		Workers:    p.workers,
		Running:    running,
		TasksTotal: p.tasksTotal.Load(),
		TasksDone:  p.tasksDone.Load(),
		QueueLen:   len(p.taskQueue),
	}
}

// PoolStats contains worker pool counters.
type PoolStats struct {
	Workers    int
	Running    bool
	TasksTotal uint64
	TasksDone  uint64
	QueueLen   int
}
