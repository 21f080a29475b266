// Package runtime hosts the background worker pool that decouples extraction
// work from the synchronous chat path.
package runtime

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Task is a unit of fire-and-forget background work. Tasks run at most once;
// failures are logged, never retried.
type Task struct {
	Name   string
	UserID string
	Run    func(ctx context.Context) error
}

// Pool is a process-wide fixed-size worker pool with a bounded queue.
// Submissions that would overflow the queue are rejected rather than queued
// without bound. There is no per-user fairness: extraction is best-effort.
type Pool struct {
	tasks   chan Task
	workers int
	logger  zerolog.Logger

	mu      sync.Mutex
	started bool
	closed  bool
	wg      sync.WaitGroup
}

// NewPool creates a pool with the given worker count and queue capacity.
func NewPool(workers, queueSize int, logger zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	p := &Pool{
		tasks:  make(chan Task, queueSize),
		logger: logger.With().Str("component", "worker_pool").Logger(),
	}
	p.workers = workers
	return p
}

// Start launches the worker goroutines. The context bounds the pool's
// lifetime, not individual tasks: a task already dequeued runs to completion.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	p.logger.Info().Int("workers", p.workers).Int("queue", cap(p.tasks)).Msg("Starting worker pool")
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

// Submit enqueues a task. It returns false when the pool is shut down or the
// queue is full; the rejection is logged and the task is dropped, which keeps
// memory bounded under load.
//
// The mutex is held across the send attempt so Shutdown cannot close the
// channel between the closed check and the send. The send itself never
// blocks, so the critical section stays short.
func (p *Pool) Submit(task Task) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		p.logger.Warn().Str("task", task.Name).Msg("Task rejected: pool is shut down")
		return false
	}

	select {
	case p.tasks <- task:
		return true
	default:
		p.logger.Warn().Str("task", task.Name).Str("user_id", task.UserID).Msg("Task rejected: queue full")
		return false
	}
}

// Shutdown stops accepting tasks, drains the queue, and waits for workers.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info().Msg("Worker pool stopped")
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			p.runTask(ctx, task)
		}
	}
}

// runTask executes one task, containing both errors and panics so a bad
// extraction can never take a worker down with it.
func (p *Pool) runTask(ctx context.Context, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().Str("task", task.Name).Str("user_id", task.UserID).Interface("panic", r).Msg("Background task panicked")
		}
	}()

	start := time.Now()
	if err := task.Run(ctx); err != nil {
		p.logger.Warn().Err(err).Str("task", task.Name).Str("user_id", task.UserID).Dur("elapsed", time.Since(start)).Msg("Background task failed")
		return
	}
	p.logger.Debug().Str("task", task.Name).Str("user_id", task.UserID).Dur("elapsed", time.Since(start)).Msg("Background task finished")
}
