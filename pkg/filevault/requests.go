package filevault

// Request DTOs

// RegisterUserRequest contains parameters for registering a user. The
// password is hashed before it ever reaches the repository.
type RegisterUserRequest struct {
	Email    string
	Password string
}

// CreateEntryRequest contains parameters for creating a folder, file or
// image. Data carries the base64-encoded content and is required unless
// Kind is folder.
type CreateEntryRequest struct {
	OwnerID  ID
	Name     string
	Kind     EntryKind
	ParentID ID
	Public   bool
	Data     string
}

// ListEntriesRequest contains parameters for listing an owner's entries
// under a parent. Page is zero-based and clamped to >= 0.
type ListEntriesRequest struct {
	OwnerID  ID
	ParentID ID
	Page     int
}

// DownloadRequest contains parameters for reading an entry's content.
// RequesterID is Root for unauthenticated requests. Width selects a
// thumbnail variant; zero selects the original bytes.
type DownloadRequest struct {
	ID          ID
	RequesterID ID
	Width       int
}

// Health reports reachability of the backing stores.
type Health struct {
	KV   bool `json:"redis"`
	Repo bool `json:"db"`
}

// Stats reports record counts across the system.
type Stats struct {
	Users   int64 `json:"users"`
	Entries int64 `json:"files"`
}
