package filevault

import (
	"context"
	"io"
	"time"
)

// KeyValue is the expiring key-value capability backing sessions. Absence
// of a key is a valid outcome, not a failure.
type KeyValue interface {
	// Set stores value under key with the given time-to-live.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Get returns the value for key. The second return is false when the
	// key is absent or expired.
	Get(ctx context.Context, key string) (string, bool, error)

	// Del removes key. Deleting an absent key is not an error.
	Del(ctx context.Context, key string) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
}

// Repository is the document-store capability holding the canonical user
// and file entry records.
type Repository interface {
	// User operations
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id ID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	CountUsers(ctx context.Context) (int64, error)

	// Entry operations. CreateEntry rejects a non-root parent that does
	// not resolve to an existing folder (ErrParentNotFound,
	// ErrParentNotFolder).
	CreateEntry(ctx context.Context, entry *FileEntry) error
	GetEntry(ctx context.Context, id ID) (*FileEntry, error)
	GetOwnedEntry(ctx context.Context, id, ownerID ID) (*FileEntry, error)

	// ListChildren returns the page-th page (zero-based, PageSize items,
	// creation order) of the owner's entries under parent. Out-of-range
	// pages return an empty slice.
	ListChildren(ctx context.Context, ownerID, parentID ID, page int) ([]*FileEntry, error)

	// SetVisibility updates the visibility flag of an entry owned by
	// ownerID. A missing or non-owned entry yields ErrEntryNotFound; the
	// entry's state is never revealed to a non-owner.
	SetVisibility(ctx context.Context, id, ownerID ID, public bool) (*FileEntry, error)

	// SetVariant attaches or overwrites the derived-variant path for the
	// given width.
	SetVariant(ctx context.Context, id ID, width int, path string) error

	CountEntries(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}

// PageSize is the fixed number of entries per listing page.
const PageSize = 20

// BlobStore persists raw bytes by path. It has no knowledge of the
// metadata records that reference those paths.
type BlobStore interface {
	// Write stores the bytes read from r under a collision-resistant
	// generated name and returns its path.
	Write(ctx context.Context, r io.Reader) (string, error)

	// Read opens the bytes at path. A missing path yields a StorageError
	// wrapping ErrEntryNotFound.
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// WriteVariant stores derived bytes at `<basePath>_<width>`,
	// replacing any prior bytes at that path, and returns the path.
	WriteVariant(ctx context.Context, basePath string, width int, r io.Reader) (string, error)
}

// Queue is the durable job queue capability with at-least-once delivery.
type Queue interface {
	// Enqueue submits a job for asynchronous processing.
	Enqueue(ctx context.Context, job Job) error

	// Dequeue blocks until a job is available or ctx is done.
	Dequeue(ctx context.Context) (*Delivery, error)
}

// Delivery is a dequeued job awaiting acknowledgement. Exactly one of
// Ack or Fail must be called.
type Delivery struct {
	Job Job

	// Ack marks the job done.
	Ack func()

	// Fail marks the job failed. Retryable failures are redelivered a
	// bounded number of times with backoff; permanent ones are not.
	Fail func(err error)
}

// EventSink receives domain notifications. Sink failures are logged and
// never fail the originating operation.
type EventSink interface {
	// UserRegistered is fired after a successful registration.
	UserRegistered(ctx context.Context, user *User) error

	// EntryCreated is fired after a file entry is persisted.
	EntryCreated(ctx context.Context, entry *FileEntry) error

	// VariantRecorded is fired after a derived variant path is recorded.
	VariantRecorded(ctx context.Context, entry *FileEntry, width int, path string) error
}
