package redis

import (
	"context"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/vaultfs/filevault/pkg/filevault"
)

// Store is a Redis implementation of the filevault.KeyValue interface
// backed by a redigo connection pool. TTLs are enforced server-side with
// SETEX, so expiry needs no application bookkeeping.
type Store struct {
	pool *redis.Pool
}

// New creates a Redis key-value store for the given URL
// (redis://host:port).
func New(url string) (*Store, error) {
	pool := &redis.Pool{
		MaxIdle:     3,
		IdleTimeout: 240 * time.Second,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			return redis.DialURLContext(ctx, url)
		},
	}

	s := &Store{pool: pool}
	if err := s.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.Do("SETEX", key, int(ttl.Seconds()), value)
	return err
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return "", false, err
	}
	defer conn.Close()

	value, err := redis.String(conn.Do("GET", key))
	if err == redis.ErrNil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *Store) Del(ctx context.Context, key string) error {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.Do("DEL", key)
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.Do("PING")
	return err
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

var _ filevault.KeyValue = (*Store)(nil)
