// Package parallel runs compute workgroups on a pool of goroutines.
package parallel

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned by Run after the pool has been closed.
var ErrClosed = errors.New("parallel: pool closed")

// WorkgroupPool executes the workgroups of a dispatch in parallel.
//
// Each worker owns a queue. Workgroups are distributed round-robin and idle
// workers steal from other queues, which balances dispatches whose
// workgroups take uneven time. Execution order between workgroups is
// unspecified.
//
// Thread safety: WorkgroupPool is safe for concurrent use.
type WorkgroupPool struct {
	workers int

	// queues holds per-worker job queues.
	queues []chan func()

	// done signals workers to stop.
	done chan struct{}

	// wg waits for all workers to finish.
	wg sync.WaitGroup

	// submitMu is held for reading while Run enqueues jobs and for writing
	// by Close, so no job is enqueued after workers begin draining.
	submitMu sync.RWMutex

	running atomic.Bool
}

// NewWorkgroupPool creates a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkgroupPool(workers int) *WorkgroupPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	queueSize := workers * 4
	if queueSize < 8 {
		queueSize = 8
	}

	p := &WorkgroupPool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range workers {
		p.queues[i] = make(chan func(), queueSize)
	}

	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}

	return p
}

func (p *WorkgroupPool) worker(id int) {
	defer p.wg.Done()

	own := p.queues[id]
	for {
		select {
		case <-p.done:
			p.drain(own)
			return
		case job := <-own:
			job()
		default:
			if stolen := p.steal(id); stolen != nil {
				stolen()
				continue
			}
			select {
			case <-p.done:
				p.drain(own)
				return
			case job := <-own:
				job()
			}
		}
	}
}

// drain runs every job left in a queue.
func (p *WorkgroupPool) drain(queue chan func()) {
	for {
		select {
		case job := <-queue:
			job()
		default:
			return
		}
	}
}

// steal takes one job from another worker's queue, or returns nil.
func (p *WorkgroupPool) steal(self int) func() {
	for i := range p.workers {
		if i == self {
			continue
		}
		select {
		case job := <-p.queues[i]:
			return job
		default:
		}
	}
	return nil
}

// Run executes job(0) … job(groups-1) and waits for all of them.
//
// Cancellation is checked before each workgroup starts; workgroups already
// running are not interrupted. Run returns ctx.Err() if the context was
// cancelled, ErrClosed if the pool is closed, nil otherwise.
func (p *WorkgroupPool) Run(ctx context.Context, groups int, job func(group int)) error {
	if groups <= 0 {
		return ctx.Err()
	}

	p.submitMu.RLock()
	if !p.running.Load() {
		p.submitMu.RUnlock()
		return ErrClosed
	}

	var pending sync.WaitGroup
	pending.Add(groups)

	submitted := 0
submit:
	for i := range groups {
		task := func() {
			defer pending.Done()
			if ctx.Err() != nil {
				return
			}
			job(i)
		}
		select {
		case p.queues[i%p.workers] <- task:
			submitted++
		case <-ctx.Done():
			break submit
		}
	}
	p.submitMu.RUnlock()

	// Release the slots of workgroups that were never enqueued.
	pending.Add(submitted - groups)
	pending.Wait()

	return ctx.Err()
}

// Close stops the workers after all queued workgroups have run.
// Close is safe to call multiple times.
func (p *WorkgroupPool) Close() {
	p.submitMu.Lock()
	if !p.running.CompareAndSwap(true, false) {
		p.submitMu.Unlock()
		return
	}
	close(p.done)
	p.submitMu.Unlock()

	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkgroupPool) Workers() int {
	return p.workers
}

// IsRunning reports whether the pool still accepts work.
func (p *WorkgroupPool) IsRunning() bool {
	return p.running.Load()
}
