// Package worker runs queued report jobs on a fixed pool of goroutines.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/okian/forceplate/internal/adapters/mq/queue"
	"github.com/okian/forceplate/internal/adapters/repository"
	"github.com/okian/forceplate/pkg/logger"
	"github.com/okian/forceplate/pkg/metrics"
)

// Default worker configuration constants.
const (
	DefaultWorkers      = 2
	poolShutdownTimeout = 30 * time.Second
)

// Processor turns a job into an archived report.
type Processor interface {
	Process(ctx context.Context, job *queue.Job) (repository.Report, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan *queue.Job
}

// Worker processes jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker without waiting for the queue to drain.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue     Queue
	processor Processor
	name      string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, p Processor, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		processor: p,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Name returns the worker name.
func (w *InMemoryWorker) Name() string { return w.name }

// Run starts the worker loop. Jobs already taken are always finished;
// a job handed over after shutdown is finished with queue.ErrStopped.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	dctx, cancel := context.WithCancel(ctx)
	defer cancel()
	jobs := w.queue.Dequeue(dctx)
	for {
		select {
		case <-w.shutdown:
			return
		default:
		}
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

// Shutdown signals the worker to stop and waits for the current job.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, job *queue.Job) {
	start := time.Now()
	rep, err := w.processor.Process(ctx, job)
	job.Finish(rep, err)

	if err != nil {
		metrics.RecordJobProcessed("error")
		metrics.RecordErrorByComponent("worker", "report_error")
		w.logger.Error(ctx, "report job failed",
			logger.String("jobID", job.ID),
			logger.Error(err),
		)
		return
	}
	metrics.RecordJobProcessed("ok")
	w.logger.Debug(ctx, "report job finished",
		logger.String("jobID", job.ID),
		logger.String("reportID", rep.ID),
		logger.Duration("waited", start.Sub(job.Enqueued)),
		logger.Duration("elapsed", time.Since(start)),
	)
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers. A nil logger discards
// output.
func NewPool(workerCount int, q Queue, p Processor, log logger.Logger) *Pool {
	if workerCount < 1 {
		workerCount = DefaultWorkers
	}
	if log == nil {
		log = logger.Nop()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  log,
	}
	for i := range pool.workers {
		name := "worker-" + strconv.Itoa(i)
		pool.workers[i] = NewInMemoryWorker(q, p, WithName(name), WithLogger(log.Named(name)))
	}
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateReportWorkers(len(p.workers))
}

// Shutdown closes the queue and lets workers drain it. Workers still busy
// when the timeout expires are signaled to stop, and jobs still waiting
// are finished with queue.ErrStopped.
func (p *Pool) Shutdown(ctx context.Context) error {
	closer, closable := p.queue.(interface{ Close() error })
	if closable {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var firstErr error
	for i, w := range p.workers {
		select {
		case <-w.done:
			continue
		case <-shutdownCtx.Done():
		}
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil && closable {
		p.stopWaiting(ctx)
	}
	metrics.UpdateReportWorkers(0)
	return firstErr
}

// stopWaiting finishes every job left in a closed queue.
func (p *Pool) stopWaiting(ctx context.Context) {
	n := 0
	for job := range p.queue.Dequeue(context.WithoutCancel(ctx)) {
		job.Finish(repository.Report{}, queue.ErrStopped)
		n++
	}
	if n > 0 {
		p.logger.Warn(ctx, "stopped waiting report jobs", logger.Int("jobs", n))
	}
}
