package memory

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/vaultfs/filevault/pkg/filevault"
)

// ErrQueueFull is returned by Enqueue when the buffer is exhausted.
var ErrQueueFull = errors.New("queue full")

const (
	defaultCapacity   = 1024
	defaultMaxRetries = 3
	defaultBackoff    = 500 * time.Millisecond
)

// Queue is a bounded in-process implementation of the filevault.Queue
// interface with at-least-once delivery: a failed retryable job is
// redelivered up to MaxRetries times with doubling backoff, then handed
// to the dead-letter hook. Consumers must therefore be idempotent.
type Queue struct {
	jobs   chan envelope
	logger *slog.Logger

	maxRetries int
	backoff    time.Duration

	// DeadLetter receives jobs that failed permanently or exhausted
	// their retries. Nil means the outcome is only logged.
	deadLetter func(filevault.Job, error)

	mu     sync.Mutex
	closed bool
}

type envelope struct {
	job      filevault.Job
	attempts int
}

// Config options for the in-memory queue.
type Config struct {
	Capacity   int
	MaxRetries int
	Backoff    time.Duration
	Logger     *slog.Logger
	DeadLetter func(filevault.Job, error)
}

// New creates a new in-memory queue.
func New(config Config) *Queue {
	if config.Capacity <= 0 {
		config.Capacity = defaultCapacity
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = defaultMaxRetries
	}
	if config.Backoff <= 0 {
		config.Backoff = defaultBackoff
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Queue{
		jobs:       make(chan envelope, config.Capacity),
		logger:     config.Logger,
		maxRetries: config.MaxRetries,
		backoff:    config.Backoff,
		deadLetter: config.DeadLetter,
	}
}

// Enqueue submits a job. It fails fast with ErrQueueFull rather than
// blocking a request on a saturated buffer.
func (q *Queue) Enqueue(ctx context.Context, job filevault.Job) error {
	return q.push(ctx, envelope{job: job})
}

func (q *Queue) push(ctx context.Context, env envelope) error {
	select {
	case q.jobs <- env:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Dequeue blocks until a job is available or ctx is done.
func (q *Queue) Dequeue(ctx context.Context) (*filevault.Delivery, error) {
	select {
	case env, ok := <-q.jobs:
		if !ok {
			return nil, errors.New("queue closed")
		}
		return q.deliver(env), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *Queue) deliver(env envelope) *filevault.Delivery {
	var once sync.Once
	return &filevault.Delivery{
		Job: env.job,
		Ack: func() {
			once.Do(func() {})
		},
		Fail: func(err error) {
			once.Do(func() { q.fail(env, err) })
		},
	}
}

func (q *Queue) fail(env envelope, err error) {
	if filevault.IsPermanentJobFailure(err) {
		q.drop(env.job, err)
		return
	}

	if env.attempts+1 > q.maxRetries {
		q.drop(env.job, err)
		return
	}

	env.attempts++
	delay := q.backoff << (env.attempts - 1)
	q.logger.Warn("job failed, retrying",
		"file_id", env.job.FileID, "attempt", env.attempts, "delay", delay, "error", err)

	time.AfterFunc(delay, func() {
		q.mu.Lock()
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return
		}
		if pushErr := q.push(context.Background(), env); pushErr != nil {
			q.drop(env.job, err)
		}
	})
}

func (q *Queue) drop(job filevault.Job, err error) {
	q.logger.Error("job failed permanently", "file_id", job.FileID, "owner_id", job.OwnerID, "error", err)
	if q.deadLetter != nil {
		q.deadLetter(job, err)
	}
}

// Close stops redelivery timers from re-submitting. Pending jobs already
// in the buffer remain consumable.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}

var _ filevault.Queue = (*Queue)(nil)
