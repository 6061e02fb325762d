// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package quickextract

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

var (
	// errPoolClosed is the result of tasks submitted after shutdown
	errPoolClosed = errors.New("worker pool is shut down")

	// errShutdownTimeout is returned by shutdown if queued tasks were dropped
	errShutdownTimeout = errors.New("worker pool did not finish within the grace period")
)

// future is the pending result of a submitted task
type future struct {
	done chan struct{}
	err  error
}

func newFuture() *future {
	return &future{done: make(chan struct{})}
}

// complete publishes err, must be called exactly once
func (f *future) complete(err error) {
	f.err = err
	close(f.done)
}

// wait blocks until the task finished and returns its error
func (f *future) wait() error {
	<-f.done
	return f.err
}

// task is a queued unit of work
type task struct {
	fn     func(workerID int) error
	result *future
}

// workerPool runs tasks on a fixed number of goroutines. Every goroutine has
// a stable worker id in [0, size), so per-worker state can be kept in a slice.
type workerPool struct {
	size   int
	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group
	logger logger

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []task
	closed bool
}

// newWorkerPool starts size workers. The pool stops taking tasks from the
// queue once ctx is cancelled.
func newWorkerPool(ctx context.Context, size int, l logger) *workerPool {
	ctx, cancel := context.WithCancel(ctx)
	p := &workerPool{
		size:   size,
		ctx:    ctx,
		cancel: cancel,
		group:  &errgroup.Group{},
		logger: l,
	}
	p.cond = sync.NewCond(&p.mu)

	// wake up idle workers and drop queued tasks on cancellation
	context.AfterFunc(ctx, func() {
		p.mu.Lock()
		p.cond.Broadcast()
		p.mu.Unlock()
		p.drain()
	})

	for id := range size {
		p.group.Go(func() error {
			p.work(id)
			return nil
		})
	}
	return p
}

// submit queues fn and returns its future. submit never blocks.
func (p *workerPool) submit(fn func(workerID int) error) *future {
	f := newFuture()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		f.complete(errPoolClosed)
		return f
	}
	if err := p.ctx.Err(); err != nil {
		f.complete(err)
		return f
	}
	p.queue = append(p.queue, task{fn: fn, result: f})
	p.cond.Signal()
	return f
}

// work runs queued tasks until the queue is closed and drained, or the pool
// is cancelled
func (p *workerPool) work(workerID int) {
	for {
		t, ok := p.next()
		if !ok {
			return
		}
		t.result.complete(p.run(workerID, t.fn))
	}
}

// next blocks for the next task. It returns false if the worker should stop.
func (p *workerPool) next() (task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.queue) == 0 && !p.closed && p.ctx.Err() == nil {
		p.cond.Wait()
	}
	if p.ctx.Err() != nil || len(p.queue) == 0 {
		return task{}, false
	}
	t := p.queue[0]
	p.queue[0] = task{}
	p.queue = p.queue[1:]
	return t, true
}

// run executes fn and converts a panic into an error
func (p *workerPool) run(workerID int, fn func(workerID int) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return fn(workerID)
}

// shutdown stops accepting tasks and waits for queued and running tasks. If
// they do not finish within grace, the pool is cancelled: running tasks are
// still awaited, queued tasks are completed with context.Canceled without
// running and errShutdownTimeout is returned.
func (p *workerPool) shutdown(grace time.Duration) error {
	p.mu.Lock()
	alreadyClosed := p.closed
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()
	if alreadyClosed {
		return nil
	}

	done := make(chan struct{})
	go func() {
		p.group.Wait()
		close(done)
	}()

	timer := time.NewTimer(grace)
	defer timer.Stop()

	var err error
	select {
	case <-done:
	case <-timer.C:
		p.logger.Debug("worker pool grace period exceeded, cancelling queued tasks", "grace", grace)
		err = errShutdownTimeout
	}

	p.cancel()
	<-done
	p.drain()
	return err
}

// drain completes every queued task with the cancellation error of the pool
func (p *workerPool) drain() {
	p.mu.Lock()
	queue := p.queue
	p.queue = nil
	p.mu.Unlock()

	err := p.ctx.Err()
	if err == nil {
		err = context.Canceled
	}
	for _, t := range queue {
		t.result.complete(err)
	}
}
