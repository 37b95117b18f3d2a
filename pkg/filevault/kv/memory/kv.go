package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vaultfs/filevault/pkg/filevault"
)

// Store is an in-memory implementation of the filevault.KeyValue
// interface with lazy expiry, for tests and single-process deployments.
type Store struct {
	mu      sync.RWMutex
	values  map[string]string
	expires map[string]time.Time
	now     func() time.Time
}

// New creates a new in-memory key-value store.
func New() *Store {
	return &Store{
		values:  make(map[string]string),
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

// NewWithClock creates a store with an injected clock, for TTL tests.
func NewWithClock(now func() time.Time) *Store {
	s := New()
	s.now = now
	return s
}

func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	s.expires[key] = s.now().Add(ttl)
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.values[key]
	if !ok {
		return "", false, nil
	}
	if s.now().After(s.expires[key]) {
		delete(s.values, key)
		delete(s.expires, key)
		return "", false, nil
	}
	return value, true, nil
}

func (s *Store) Del(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	delete(s.expires, key)
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return nil
}

var _ filevault.KeyValue = (*Store)(nil)
