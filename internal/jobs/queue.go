package jobs

import (
	"time"

	"github.com/vytor/flashmind/internal/worker"
)

// JobQueue provides an abstraction for enqueueing background jobs
type JobQueue interface {
	EnqueueDuePoll() error
	EnqueueSweep() error
}

// WorkerQueue implements JobQueue on a worker pool
type WorkerQueue struct {
	pool     *worker.Pool
	sessions SessionRunner
}

// NewWorkerQueue creates a new WorkerQueue implementation
func NewWorkerQueue(pool *worker.Pool, sessions SessionRunner) *WorkerQueue {
	return &WorkerQueue{pool: pool, sessions: sessions}
}

// EnqueueDuePoll queues a due poll unless the pool is full; a skipped poll
// is picked up by the next one.
func (q *WorkerQueue) EnqueueDuePoll() error {
	return q.pool.TrySubmit(q.DuePollJob())
}

func (q *WorkerQueue) EnqueueSweep() error {
	return q.pool.TrySubmit(q.SweepJob())
}

func (q *WorkerQueue) DuePollJob() worker.Job { return &DuePollJob{Sessions: q.sessions} }

func (q *WorkerQueue) SweepJob() worker.Job { return &SweepSessionsJob{Sessions: q.sessions} }

// Tickers schedules a due poll every pollEvery and a sweep every sweepEvery.
func (q *WorkerQueue) Tickers(pollEvery, sweepEvery time.Duration) []*worker.Ticker {
	return []*worker.Ticker{
		{Name: duePollJobName, Interval: pollEvery, Enqueue: q.EnqueueDuePoll},
		{Name: sweepJobName, Interval: sweepEvery, Enqueue: q.EnqueueSweep},
	}
}

var _ JobQueue = (*WorkerQueue)(nil)
