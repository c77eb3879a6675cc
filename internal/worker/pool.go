// Package worker runs background tasks: a bounded in-process pool for
// collect and analysis jobs, a cron scheduler for monitoring keywords and
// the nightly recompute, and a Redis rate limiter for ad library calls.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ignite/ad-insights/internal/config"
	"github.com/ignite/ad-insights/internal/pkg/logger"
)

var (
	ErrQueueFull = errors.New("worker: queue is full")
	ErrStopped   = errors.New("worker: pool is stopped")
)

// Observer is told about task lifecycle events.
type Observer interface {
	TaskQueued()
	TaskStarted()
	TaskFinished(err error)
	TaskRejected()
}

type nopObserver struct{}

func (nopObserver) TaskQueued()        {}
func (nopObserver) TaskStarted()       {}
func (nopObserver) TaskFinished(error) {}
func (nopObserver) TaskRejected()      {}

type task struct {
	name string
	fn   func(ctx context.Context) error
}

// Pool runs dispatched tasks on a fixed number of goroutines. Dispatch
// never blocks: when the queue is full the task is rejected.
type Pool struct {
	queue       chan task
	concurrency int
	timeout     time.Duration
	observer    Observer

	mu      sync.Mutex
	running bool
	closed  bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewPool creates a pool from configuration. obs may be nil.
func NewPool(cfg config.WorkerConfig, obs Observer) *Pool {
	if obs == nil {
		obs = nopObserver{}
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	size := cfg.QueueSize
	if size <= 0 {
		size = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		queue:       make(chan task, size),
		concurrency: concurrency,
		timeout:     cfg.TaskTimeout(),
		observer:    obs,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start launches the workers.
func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return fmt.Errorf("pool already running")
	}
	if p.closed {
		return ErrStopped
	}
	p.running = true
	for i := 0; i < p.concurrency; i++ {
		p.wg.Add(1)
		go p.loop(i)
	}
	logger.Info("[Worker] pool started", "concurrency", p.concurrency, "queue_size", cap(p.queue))
	return nil
}

// Dispatch queues fn under name. It implements the Dispatcher port of the
// collection, analysis and monitoring services.
func (p *Pool) Dispatch(name string, fn func(ctx context.Context) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrStopped
	}
	select {
	case p.queue <- task{name: name, fn: fn}:
		p.observer.TaskQueued()
		return nil
	default:
		p.observer.TaskRejected()
		logger.Warn("[Worker] queue full, task rejected", "task", name)
		return ErrQueueFull
	}
}

// Stop refuses new tasks and lets queued ones finish until ctx ends, then
// cancels whatever is still running and waits for it to return.
func (p *Pool) Stop(ctx context.Context) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		logger.Warn("[Worker] stop deadline reached, cancelling running tasks")
		p.cancel()
		<-done
	}
	p.cancel()
	logger.Info("[Worker] pool stopped")
}

func (p *Pool) loop(id int) {
	defer p.wg.Done()
	for t := range p.queue {
		p.observer.TaskStarted()
		err := p.run(t)
		p.observer.TaskFinished(err)
		if err != nil {
			logger.Error("[Worker] task failed", "worker", id, "task", t.name, "error", err)
		}
	}
}

func (p *Pool) run(t task) (err error) {
	ctx := p.ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in task %s: %v", t.name, r)
		}
	}()
	start := time.Now()
	err = t.fn(ctx)
	logger.Debug("[Worker] task done", "task", t.name, "elapsed", time.Since(start).String())
	return err
}

// QueueDepth reports how many tasks are waiting for a worker.
func (p *Pool) QueueDepth() int { return len(p.queue) }

// Capacity is the queue size.
func (p *Pool) Capacity() int { return cap(p.queue) }
