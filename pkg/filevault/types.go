package filevault

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EntryKind is the domain type for the three recognized entry kinds.
type EntryKind string

// Entry kind constants (typed).
const (
	KindFolder EntryKind = "folder"
	KindFile   EntryKind = "file"
	KindImage  EntryKind = "image"
)

// Valid reports whether k is one of the recognized kinds.
func (k EntryKind) Valid() bool {
	switch k {
	case KindFolder, KindFile, KindImage:
		return true
	}
	return false
}

// HasContent reports whether entries of this kind carry stored bytes.
// Folders never do; files and images always do.
func (k EntryKind) HasContent() bool {
	return k == KindFile || k == KindImage
}

// ThumbnailWidths are the target widths derived for every image, in the
// order they are produced. Variant bytes live at `<originalPath>_<width>`.
var ThumbnailWidths = [3]int{500, 250, 100}

// ID is an opaque identifier for users and file entries.
//
// The zero value is Root, the parent sentinel meaning "no parent".
// Parent references are always compared structurally through this type,
// never through their textual form.
type ID uuid.UUID

// Root is the parent sentinel for top-level entries.
var Root ID

// NewID returns a new random identifier.
func NewID() ID {
	return ID(uuid.New())
}

// ParseID parses the textual form of an identifier. The empty string and
// "0" parse to Root; anything else must be a valid UUID.
func ParseID(s string) (ID, error) {
	if s == "" || s == "0" {
		return Root, nil
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return Root, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return ID(u), nil
}

// IsRoot reports whether id is the parent sentinel.
func (id ID) IsRoot() bool {
	return id == Root
}

// String renders Root as "0" and anything else as its UUID form, matching
// the wire representation of parent references.
func (id ID) String() string {
	if id.IsRoot() {
		return "0"
	}
	return uuid.UUID(id).String()
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(b []byte) error {
	parsed, err := ParseID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// User is an account that owns file entries. PasswordHash is a bcrypt
// hash; the plaintext credential is never stored.
type User struct {
	ID           ID        `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// FileEntry is a metadata record for a folder, file or image in the
// virtual hierarchy.
//
// ParentID is Root or the ID of an existing folder; this is enforced at
// creation time. Path references bytes held by a BlobStore and is never
// exposed to clients. Variants maps a thumbnail width to the path of the
// derived bytes and is only populated for images.
type FileEntry struct {
	ID        ID             `json:"id"`
	OwnerID   ID             `json:"user_id"`
	Name      string         `json:"name"`
	Kind      EntryKind      `json:"type"`
	ParentID  ID             `json:"parent_id"`
	Public    bool           `json:"is_public"`
	Path      string         `json:"-"`
	Variants  map[int]string `json:"-"`
	CreatedAt time.Time      `json:"created_at"`
}

// VariantPath returns the recorded path for the given width, or "" when
// no variant has been recorded yet.
func (e *FileEntry) VariantPath(width int) string {
	if e.Variants == nil {
		return ""
	}
	return e.Variants[width]
}

// Job is a unit of asynchronous thumbnail work. Both fields are required;
// a job missing either is malformed and permanently failed.
type Job struct {
	OwnerID ID `json:"ownerId"`
	FileID  ID `json:"fileId"`
}
