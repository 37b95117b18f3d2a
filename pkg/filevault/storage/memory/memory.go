package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/vaultfs/filevault/pkg/filevault"
)

// Backend is an in-memory implementation of the filevault.BlobStore
// interface, for tests and ephemeral deployments.
type Backend struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		objects: make(map[string][]byte),
	}
}

func (b *Backend) Write(ctx context.Context, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", &filevault.StorageError{Op: "write", Err: err}
	}

	path := uuid.NewString()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[path] = data
	return path, nil
}

func (b *Backend) Read(ctx context.Context, path string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[path]
	if !exists {
		return nil, &filevault.StorageError{Path: path, Op: "read", Err: filevault.ErrEntryNotFound}
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *Backend) WriteVariant(ctx context.Context, basePath string, width int, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", &filevault.StorageError{Path: basePath, Op: "write_variant", Err: err}
	}

	path := fmt.Sprintf("%s_%d", basePath, width)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[path] = data
	return path, nil
}

// Len reports the number of stored objects, for tests.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}

var _ filevault.BlobStore = (*Backend)(nil)
