package fs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/vaultfs/filevault/pkg/filevault"
)

// DefaultBaseDir is used when no storage root is configured.
const DefaultBaseDir = "/tmp/files_manager"

// Backend is a filesystem implementation of the filevault.BlobStore
// interface. Paths returned by Write are absolute; the backend has no
// knowledge of the metadata records that reference them.
type Backend struct {
	baseDir string
}

// Config options for the filesystem backend
type Config struct {
	BaseDir string // Base directory for storing files
}

// New creates a new filesystem storage backend, creating the base
// directory if it does not exist.
func New(config Config) (*Backend, error) {
	if config.BaseDir == "" {
		config.BaseDir = DefaultBaseDir
	}

	if err := os.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, &filevault.StorageError{Path: config.BaseDir, Op: "mkdir", Err: err}
	}

	return &Backend{baseDir: config.BaseDir}, nil
}

// Write stores the bytes under a fresh UUID name and returns the path.
func (b *Backend) Write(ctx context.Context, r io.Reader) (string, error) {
	path := filepath.Join(b.baseDir, uuid.NewString())
	if err := b.writeFile(path, r); err != nil {
		return "", err
	}
	return path, nil
}

// Read opens the bytes at path.
func (b *Backend) Read(ctx context.Context, path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, &filevault.StorageError{Path: path, Op: "read", Err: filevault.ErrEntryNotFound}
	} else if err != nil {
		return nil, &filevault.StorageError{Path: path, Op: "read", Err: err}
	}
	return file, nil
}

// WriteVariant stores derived bytes at `<basePath>_<width>`, replacing
// any prior bytes. Re-running the same derivation is idempotent.
func (b *Backend) WriteVariant(ctx context.Context, basePath string, width int, r io.Reader) (string, error) {
	path := fmt.Sprintf("%s_%d", basePath, width)
	if err := b.writeFile(path, r); err != nil {
		return "", err
	}
	return path, nil
}

func (b *Backend) writeFile(path string, r io.Reader) error {
	// Recreate the base directory in case it was removed out of band.
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &filevault.StorageError{Path: path, Op: "mkdir", Err: err}
	}

	file, err := os.Create(path)
	if err != nil {
		return &filevault.StorageError{Path: path, Op: "write", Err: err}
	}
	defer file.Close()

	if _, err := io.Copy(file, r); err != nil {
		return &filevault.StorageError{Path: path, Op: "write", Err: err}
	}
	return nil
}

var _ filevault.BlobStore = (*Backend)(nil)
