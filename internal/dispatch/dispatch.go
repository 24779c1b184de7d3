// Package dispatch runs alert side effects as bounded background work so
// they never block the frame loop.
package dispatch

import (
	"context"
	"log"
	"sync"
)

// Defaults for the task queue.
const (
	DefaultWorkers   = 4
	DefaultQueueSize = 32
)

type task struct {
	name string
	fn   func(ctx context.Context)
}

// Dispatcher is a fixed worker pool over a bounded queue. Submissions when
// the queue is full are dropped with a log line rather than blocking the
// caller; tasks are best-effort, at-most-once. Close drains outstanding
// work before returning, so shutdown awaits background effects instead of
// abandoning them.
type Dispatcher struct {
	ctx   context.Context
	tasks chan task
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// New creates a Dispatcher with the given worker count and queue size.
// Values <= 0 fall back to the defaults. The context is passed to every
// task; canceling it releases tasks blocked on external calls.
func New(ctx context.Context, workers, queueSize int) *Dispatcher {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	d := &Dispatcher{
		ctx:   ctx,
		tasks: make(chan task, queueSize),
	}

	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.worker()
	}

	return d
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for t := range d.tasks {
		d.run(t)
	}
}

func (d *Dispatcher) run(t task) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Background task %s panicked: %v", t.name, r)
		}
	}()
	t.fn(d.ctx)
}

// Go submits a background task. Returns false when the task was dropped
// because the queue is full or the dispatcher is closed.
func (d *Dispatcher) Go(name string, fn func(ctx context.Context)) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		log.Printf("Dropping background task %s: dispatcher closed", name)
		return false
	}

	select {
	case d.tasks <- task{name: name, fn: fn}:
		return true
	default:
		log.Printf("Dropping background task %s: queue full", name)
		return false
	}
}

// Close stops accepting tasks and waits for queued work to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.tasks)
	d.mu.Unlock()

	d.wg.Wait()
}
