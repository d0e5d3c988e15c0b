// Package worker runs detached background tasks with bounded concurrency.
package worker

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Runner executes tasks on their own goroutines, at most limit at a time.
// Tasks get the runner's context, not the caller's, so they outlive the
// request that scheduled them.
type Runner struct {
	base   context.Context
	cancel context.CancelFunc
	sem    *semaphore.Weighted
	log    *slog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewRunner(limit int, log *slog.Logger) *Runner {
	if limit <= 0 {
		limit = 1
	}
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		base:   ctx,
		cancel: cancel,
		sem:    semaphore.NewWeighted(int64(limit)),
		log:    log.With("component", "worker"),
	}
}

// Go schedules task and returns immediately. It reports false once the
// runner is shutting down.
func (r *Runner) Go(name string, task func(ctx context.Context)) bool {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.log.Warn("task rejected, runner shutting down", "task", name)
		return false
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		if err := r.sem.Acquire(r.base, 1); err != nil {
			r.log.Error("task dropped before start", "task", name, "error", err)
			return
		}
		defer r.sem.Release(1)
		defer func() {
			if p := recover(); p != nil {
				r.log.Error("task panicked", "task", name, "panic", p)
			}
		}()
		task(r.base)
	}()
	return true
}

// Shutdown stops accepting tasks and waits for running ones. If ctx expires
// first, running tasks are cancelled and Shutdown still waits for them to
// return before reporting ctx.Err().
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancel()
		return nil
	case <-ctx.Done():
		r.cancel()
		<-done
		return ctx.Err()
	}
}
