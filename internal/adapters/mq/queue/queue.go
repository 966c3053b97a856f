// Package queue holds report jobs waiting for a worker.
//
// Enqueue never blocks: a full queue refuses the job so the HTTP layer can
// answer 503 instead of piling up uploads in memory.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/forceplate/internal/adapters/repository"
	"github.com/okian/forceplate/internal/adapters/source"
	"github.com/okian/forceplate/pkg/metrics"
)

// DefaultCapacity is the number of jobs that may wait for a worker.
const DefaultCapacity = 16

// Outcome is the result of one processed job.
type Outcome struct {
	Report repository.Report
	Err    error
}

// Job is one report request: the uploaded files and where to deliver the
// outcome.
type Job struct {
	repository.Header

	ID       string
	Files    source.Files
	Enqueued time.Time

	done chan Outcome
	once sync.Once
}

// NewJob creates a job with a fresh id.
func NewJob(h repository.Header, files source.Files) *Job {
	return &Job{
		Header:   h,
		ID:       uuid.NewString(),
		Files:    files,
		Enqueued: time.Now(),
		done:     make(chan Outcome, 1),
	}
}

// Done receives exactly one outcome.
func (j *Job) Done() <-chan Outcome { return j.done }

// Finish delivers the outcome. Only the first call has an effect.
func (j *Job) Finish(rep repository.Report, err error) {
	j.once.Do(func() {
		j.done <- Outcome{Report: rep, Err: err}
	})
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job. It returns false if the queue is full or closed.
	Enqueue(ctx context.Context, j *Job) bool

	// Dequeue returns a channel that receives jobs as they become available.
	// The channel is closed when the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan *Job

	// Len returns the number of waiting jobs.
	Len(ctx context.Context) int

	// Close stops accepting jobs. Waiting jobs can still be dequeued.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan *Job
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan *Job, q.capacity)
	metrics.UpdateJobQueueDepth(0)
	return q
}

// Capacity returns the maximum number of waiting jobs.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Enqueue adds a job to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j *Job) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordJobRejected("closed")
		return false
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordJobRejected("canceled")
		return false
	}

	select {
	case q.jobs <- j:
		metrics.RecordJobEnqueued()
		metrics.UpdateJobQueueDepth(len(q.jobs))
		return true
	default:
		metrics.RecordJobRejected("full")
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue returns a channel that receives jobs. A job taken off the queue
// after ctx is canceled is finished with ErrStopped.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan *Job {
	out := make(chan *Job)
	go func() {
		defer close(out)
		for {
			var j *Job
			select {
			case <-ctx.Done():
				return
			case next, ok := <-q.jobs:
				if !ok {
					return
				}
				j = next
			}
			metrics.UpdateJobQueueDepth(len(q.jobs))
			select {
			case out <- j:
			case <-ctx.Done():
				j.Finish(repository.Report{}, ErrStopped)
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued jobs.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return len(q.jobs)
}

// Close stops accepting jobs.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
