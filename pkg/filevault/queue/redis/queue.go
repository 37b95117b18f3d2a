// Package redis implements the job queue on a Redis list, so the HTTP
// process and worker processes can share one durable queue.
package redis

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/vaultfs/filevault/pkg/filevault"
)

const (
	queueKey      = "fileq"
	deadLetterKey = "fileq:dead"

	defaultMaxRetries = 3
	defaultBackoff    = 500 * time.Millisecond

	// BRPOP timeout; short so Dequeue notices context cancellation.
	popTimeoutSeconds = 1
)

type envelope struct {
	filevault.Job
	Attempts int `json:"attempts"`
}

// Queue is a Redis-list implementation of the filevault.Queue interface.
// Jobs are JSON envelopes carrying their retry count; exhausted or
// permanently failed jobs are parked on a dead-letter list for operator
// inspection.
type Queue struct {
	pool       *redis.Pool
	logger     *slog.Logger
	maxRetries int
	backoff    time.Duration
}

// Config options for the Redis queue.
type Config struct {
	URL        string
	MaxRetries int
	Backoff    time.Duration
	Logger     *slog.Logger
}

// New creates a Redis-backed queue for the given URL.
func New(config Config) (*Queue, error) {
	if config.MaxRetries <= 0 {
		config.MaxRetries = defaultMaxRetries
	}
	if config.Backoff <= 0 {
		config.Backoff = defaultBackoff
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	pool := &redis.Pool{
		MaxIdle:     3,
		IdleTimeout: 240 * time.Second,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			return redis.DialURLContext(ctx, config.URL)
		},
	}

	q := &Queue{
		pool:       pool,
		logger:     config.Logger,
		maxRetries: config.MaxRetries,
		backoff:    config.Backoff,
	}

	conn, err := pool.GetContext(context.Background())
	if err != nil {
		pool.Close()
		return nil, err
	}
	defer conn.Close()
	if _, err := conn.Do("PING"); err != nil {
		pool.Close()
		return nil, err
	}
	return q, nil
}

func (q *Queue) Enqueue(ctx context.Context, job filevault.Job) error {
	return q.push(ctx, envelope{Job: job})
}

func (q *Queue) push(ctx context.Context, env envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}

	conn, err := q.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.Do("LPUSH", queueKey, payload)
	return err
}

// Dequeue blocks until a job is available or ctx is done. A popped job
// that the process loses before Ack is gone; the pipeline accepts that
// narrow window in exchange for a simple list queue.
func (q *Queue) Dequeue(ctx context.Context) (*filevault.Delivery, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		env, ok, err := q.pop(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		job := env.Job
		return &filevault.Delivery{
			Job:  job,
			Ack:  func() {},
			Fail: func(failErr error) { q.fail(env, failErr) },
		}, nil
	}
}

func (q *Queue) pop(ctx context.Context) (envelope, bool, error) {
	var env envelope

	conn, err := q.pool.GetContext(ctx)
	if err != nil {
		return env, false, err
	}
	defer conn.Close()

	values, err := redis.Values(conn.Do("BRPOP", queueKey, popTimeoutSeconds))
	if err == redis.ErrNil {
		return env, false, nil
	}
	if err != nil {
		return env, false, err
	}

	var key string
	var payload []byte
	if _, err := redis.Scan(values, &key, &payload); err != nil {
		return env, false, err
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		q.logger.Error("discarding undecodable job", "error", err)
		return env, false, nil
	}
	return env, true, nil
}

func (q *Queue) fail(env envelope, err error) {
	if filevault.IsPermanentJobFailure(err) || env.Attempts+1 > q.maxRetries {
		q.park(env, err)
		return
	}

	env.Attempts++
	delay := q.backoff << (env.Attempts - 1)
	q.logger.Warn("job failed, retrying",
		"file_id", env.FileID, "attempt", env.Attempts, "delay", delay, "error", err)

	time.AfterFunc(delay, func() {
		if pushErr := q.push(context.Background(), env); pushErr != nil {
			q.logger.Error("failed to requeue job", "file_id", env.FileID, "error", pushErr)
		}
	})
}

// park moves the job to the dead-letter list.
func (q *Queue) park(env envelope, failErr error) {
	q.logger.Error("job failed permanently",
		"file_id", env.FileID, "owner_id", env.OwnerID, "error", failErr)

	payload, err := json.Marshal(env)
	if err != nil {
		return
	}
	conn, err := q.pool.GetContext(context.Background())
	if err != nil {
		q.logger.Error("failed to park dead job", "file_id", env.FileID, "error", err)
		return
	}
	defer conn.Close()
	if _, err := conn.Do("LPUSH", deadLetterKey, payload); err != nil {
		q.logger.Error("failed to park dead job", "file_id", env.FileID, "error", err)
	}
}

// Close releases the underlying connection pool.
func (q *Queue) Close() error {
	return q.pool.Close()
}

var _ filevault.Queue = (*Queue)(nil)
