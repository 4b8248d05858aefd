// Package worker runs the single store writer. Saves are queued and
// applied one at a time so two edits never interleave against the store.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/medalboard/internal/domain/filter"
	"github.com/okian/medalboard/internal/domain/model"
	"github.com/okian/medalboard/internal/domain/reconcile"
	"github.com/okian/medalboard/pkg/logger"
	"github.com/okian/medalboard/pkg/metrics"
)

// Job is one queued save.
type Job struct {
	// Key is the caller's idempotency key, possibly empty.
	Key    string
	Sel    filter.Selection
	Edited []model.Record

	// Retry replays the session's pending edit instead of Sel/Edited.
	Retry bool

	enqueued time.Time
	cancel   <-chan struct{}
	reply    chan<- Outcome
}

// Outcome is what the writer reports back for a Job.
type Outcome struct {
	Result reconcile.Result
	Err    error
}

// Handler applies a job against the store.
type Handler interface {
	HandleSave(ctx context.Context, job Job) (reconcile.Result, error)
}

// Queue defines how the writer receives jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Enqueuer is the producer side of the queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, job Job) bool
}

// Submit queues job and waits for the writer's outcome. A full or closed
// queue fails fast with ErrBusy. If ctx ends while the job is still queued
// the writer skips it; once the writer has started, the save completes
// and its outcome is only observable through an idempotent resubmit.
func Submit(ctx context.Context, q Enqueuer, job Job) (reconcile.Result, error) {
	reply := make(chan Outcome, 1)
	job.reply = reply
	job.cancel = ctx.Done()
	job.enqueued = time.Now()

	if !q.Enqueue(ctx, job) {
		return reconcile.Result{}, ErrBusy
	}
	select {
	case out := <-reply:
		return out.Result, out.Err
	case <-ctx.Done():
		return reconcile.Result{}, ctx.Err()
	}
}

// Writer drains the queue with a single goroutine.
type Writer struct {
	queue   Queue
	handler Handler
	name    string

	// Shutdown control
	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewWriter creates a writer with configuration options.
func NewWriter(queue Queue, handler Handler, opts ...Option) *Writer {
	w := &Writer{
		queue:    queue,
		handler:  handler,
		name:     "writer",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run processes jobs until the queue is closed and drained, ctx is
// canceled, or Shutdown gives up waiting.
func (w *Writer) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, job)
		}
	}
}

// Shutdown waits for Run to drain the queue. The queue must be closed
// first. If ctx ends before that, the writer is stopped and queued jobs
// are left to their callers' deadlines.
func (w *Writer) Shutdown(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.stopOnce.Do(func() { close(w.shutdown) })
		w.logger.Warn(ctx, "writer shutdown timed out")
		return fmt.Errorf("%w: %w", ErrStopped, ctx.Err())
	}
}

// Done is closed once Run has returned.
func (w *Writer) Done() <-chan struct{} { return w.done }

// process handles a single job.
func (w *Writer) process(ctx context.Context, job Job) {
	if !job.enqueued.IsZero() {
		metrics.RecordQueueWait(float64(time.Since(job.enqueued).Microseconds()) / 1000)
	}

	select {
	case <-job.cancel:
		metrics.RecordQueueRejected("abandoned")
		w.logger.Debug(ctx, "skipping abandoned save", logger.String("key", job.Key))
		w.reply(job, Outcome{Err: ErrAbandoned})
		return
	default:
	}

	res, err := w.handler.HandleSave(ctx, job)
	if err != nil {
		w.logger.Debug(ctx, "save job failed",
			logger.String("key", job.Key),
			logger.Bool("retry", job.Retry),
			logger.Error(err),
		)
	}
	w.reply(job, Outcome{Result: res, Err: err})
}

func (w *Writer) reply(job Job, out Outcome) {
	if job.reply != nil {
		job.reply <- out
	}
}
