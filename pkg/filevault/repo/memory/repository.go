package memory

import (
	"context"
	"sync"

	"github.com/vaultfs/filevault/pkg/filevault"
)

type childKey struct {
	owner  filevault.ID
	parent filevault.ID
}

// Repository implements filevault.Repository using in-memory storage.
// Children are kept in insertion order per (owner, parent) so listing
// pages are stable.
type Repository struct {
	mu           sync.RWMutex
	users        map[filevault.ID]*filevault.User
	usersByEmail map[string]filevault.ID
	entries      map[filevault.ID]*filevault.FileEntry
	children     map[childKey][]filevault.ID
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		users:        make(map[filevault.ID]*filevault.User),
		usersByEmail: make(map[string]filevault.ID),
		entries:      make(map[filevault.ID]*filevault.FileEntry),
		children:     make(map[childKey][]filevault.ID),
	}
}

// User operations

func (r *Repository) CreateUser(ctx context.Context, user *filevault.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.usersByEmail[user.Email]; exists {
		return filevault.ErrUserExists
	}

	// Copy to avoid external modifications
	userCopy := *user
	r.users[user.ID] = &userCopy
	r.usersByEmail[user.Email] = user.ID
	return nil
}

func (r *Repository) GetUser(ctx context.Context, id filevault.ID) (*filevault.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return nil, filevault.ErrUserNotFound
	}
	userCopy := *user
	return &userCopy, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*filevault.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.usersByEmail[email]
	if !exists {
		return nil, filevault.ErrUserNotFound
	}
	userCopy := *r.users[id]
	return &userCopy, nil
}

func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.users)), nil
}

// Entry operations

func (r *Repository) CreateEntry(ctx context.Context, entry *filevault.FileEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !entry.ParentID.IsRoot() {
		parent, exists := r.entries[entry.ParentID]
		if !exists {
			return filevault.ErrParentNotFound
		}
		if parent.Kind != filevault.KindFolder {
			return filevault.ErrParentNotFolder
		}
	}

	entryCopy := copyEntry(entry)
	r.entries[entry.ID] = entryCopy

	key := childKey{owner: entry.OwnerID, parent: entry.ParentID}
	r.children[key] = append(r.children[key], entry.ID)
	return nil
}

func (r *Repository) GetEntry(ctx context.Context, id filevault.ID) (*filevault.FileEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.entries[id]
	if !exists {
		return nil, filevault.ErrEntryNotFound
	}
	return copyEntry(entry), nil
}

func (r *Repository) GetOwnedEntry(ctx context.Context, id, ownerID filevault.ID) (*filevault.FileEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.entries[id]
	if !exists || entry.OwnerID != ownerID {
		return nil, filevault.ErrEntryNotFound
	}
	return copyEntry(entry), nil
}

func (r *Repository) ListChildren(ctx context.Context, ownerID, parentID filevault.ID, page int) ([]*filevault.FileEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if page < 0 {
		page = 0
	}

	ids := r.children[childKey{owner: ownerID, parent: parentID}]

	start := page * filevault.PageSize
	if start >= len(ids) {
		return []*filevault.FileEntry{}, nil
	}
	end := start + filevault.PageSize
	if end > len(ids) {
		end = len(ids)
	}

	result := make([]*filevault.FileEntry, 0, end-start)
	for _, id := range ids[start:end] {
		result = append(result, copyEntry(r.entries[id]))
	}
	return result, nil
}

func (r *Repository) SetVisibility(ctx context.Context, id, ownerID filevault.ID, public bool) (*filevault.FileEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.entries[id]
	if !exists || entry.OwnerID != ownerID {
		return nil, filevault.ErrEntryNotFound
	}
	entry.Public = public
	return copyEntry(entry), nil
}

func (r *Repository) SetVariant(ctx context.Context, id filevault.ID, width int, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.entries[id]
	if !exists {
		return filevault.ErrEntryNotFound
	}
	if entry.Variants == nil {
		entry.Variants = make(map[int]string)
	}
	entry.Variants[width] = path
	return nil
}

func (r *Repository) CountEntries(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.entries)), nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return nil
}

func copyEntry(entry *filevault.FileEntry) *filevault.FileEntry {
	entryCopy := *entry
	if entry.Variants != nil {
		entryCopy.Variants = make(map[int]string, len(entry.Variants))
		for w, p := range entry.Variants {
			entryCopy.Variants[w] = p
		}
	}
	return &entryCopy
}

var _ filevault.Repository = (*Repository)(nil)
