package relay

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/edgard/relaychat/internal/logger"
)

// Task is a background delivery. Its error is logged, never returned to the
// request that scheduled it.
type Task func(ctx context.Context) error

// Runner executes fire-and-forget tasks with bounded concurrency. Tasks run
// on their own context so they outlive the request that scheduled them.
type Runner struct {
	group   errgroup.Group
	pending sync.WaitGroup
	timeout time.Duration
	logger  *slog.Logger
}

// NewRunner creates a Runner running at most limit tasks at once, each
// bounded by timeout.
func NewRunner(limit int, timeout time.Duration, log *slog.Logger) *Runner {
	if log == nil {
		log = logger.Discard()
	}
	r := &Runner{
		timeout: timeout,
		logger:  log.With("component", "task_runner"),
	}
	if limit > 0 {
		r.group.SetLimit(limit)
	}
	return r
}

// Go schedules task. When every slot is busy the task queues for the next
// free one; Go itself never blocks the caller.
func (r *Runner) Go(name string, task Task) {
	r.pending.Add(1)
	go func() {
		defer r.pending.Done()
		r.group.Go(func() error {
			r.run(name, task)
			return nil
		})
	}()
}

func (r *Runner) run(name string, task Task) {
	ctx := context.Background()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	startTime := time.Now()
	if err := task(ctx); err != nil {
		r.logger.Warn("Background task failed", "task", name, "error", err, "duration", time.Since(startTime))
		return
	}
	r.logger.Debug("Background task finished", "task", name, "duration", time.Since(startTime))
}

// Wait blocks until every scheduled task, queued or running, has finished.
func (r *Runner) Wait() {
	r.pending.Wait()
	_ = r.group.Wait()
}
