package filevault

import (
	"context"
	"io"
)

// Service is the main interface of the filevault core: account
// registration, token sessions, the upload pipeline and the read paths.
type Service interface {
	// Account and session operations
	RegisterUser(ctx context.Context, req RegisterUserRequest) (*User, error)
	Connect(ctx context.Context, email, password string) (string, error)
	Disconnect(ctx context.Context, token string) error
	UserForToken(ctx context.Context, token string) (*User, error)

	// Upload pipeline
	CreateEntry(ctx context.Context, req CreateEntryRequest) (*FileEntry, error)

	// Metadata read/write paths, owner-scoped
	GetEntry(ctx context.Context, ownerID, id ID) (*FileEntry, error)
	ListEntries(ctx context.Context, req ListEntriesRequest) ([]*FileEntry, error)
	SetVisibility(ctx context.Context, ownerID, id ID, public bool) (*FileEntry, error)

	// Download serves original or variant bytes, gated by CanRead.
	Download(ctx context.Context, req DownloadRequest) (io.ReadCloser, *FileEntry, error)

	// Operational
	Health(ctx context.Context) Health
	Stats(ctx context.Context) (Stats, error)
}
