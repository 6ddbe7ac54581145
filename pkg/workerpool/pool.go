// Package workerpool provides the bounded goroutine pool that runs
// scenarios concurrently.
//
// The pool caps how many scenarios hit the shared backend at once: the
// platform under test is a live deployment, and an unbounded fan-out would
// turn a contract suite into a load test. Submit applies backpressure
// without blocking; SubmitWait blocks until a worker frees up, which is
// what the suite runner wants when it has a fixed list of scenarios to
// drain.
//
//	pool := workerpool.New(4)
//	defer pool.Shutdown()
//
//	for _, sc := range scenarios {
//	    _ = pool.SubmitWait(func() { run(sc) })
//	}
package workerpool

import (
	"errors"
	"sync"
)

// ErrPoolFull is returned by Submit when every worker is busy and the task
// queue is at capacity.
var ErrPoolFull = errors.New("workerpool: pool is full")

// ErrPoolClosed is returned by Submit and SubmitWait after Shutdown.
var ErrPoolClosed = errors.New("workerpool: pool is closed")

// Pool is a fixed-size goroutine pool with a bounded task queue.
type Pool struct {
	tasks   chan func()
	wg      sync.WaitGroup
	once    sync.Once
	closeCh chan struct{}
}

// New creates a Pool with the given number of workers. A size below 1 is
// clamped to 1, which degrades to sequential execution.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}

	p := &Pool{
		// One queued task per worker: enough to keep workers fed between
		// submissions without hiding real backpressure.
		tasks:   make(chan func(), size),
		closeCh: make(chan struct{}),
	}

	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return p
}

// Submit enqueues task without blocking. It returns ErrPoolFull when the
// queue is at capacity and ErrPoolClosed after Shutdown.
func (p *Pool) Submit(task func()) error {
	select {
	case <-p.closeCh:
		return ErrPoolClosed
	default:
	}

	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrPoolFull
	}
}

// SubmitWait enqueues task, blocking until a queue slot opens. Returns
// ErrPoolClosed when the pool is shutting down.
func (p *Pool) SubmitWait(task func()) error {
	select {
	case <-p.closeCh:
		return ErrPoolClosed
	case p.tasks <- task:
		return nil
	}
}

// Shutdown stops accepting tasks and waits for in-flight work to finish.
// Safe to call multiple times.
func (p *Pool) Shutdown() {
	p.once.Do(func() {
		close(p.closeCh)
		close(p.tasks)
		p.wg.Wait()
	})
}

// worker drains the task channel until it is closed.
func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		runTask(task)
	}
}

// runTask executes one task, recovering from panics so a crashing scenario
// cannot take its worker goroutine down with it.
func runTask(task func()) {
	defer func() { recover() }() //nolint:errcheck
	task()
}
