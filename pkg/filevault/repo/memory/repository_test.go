package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultfs/filevault/pkg/filevault"
)

func newUser(email string) *filevault.User {
	return &filevault.User{ID: filevault.NewID(), Email: email, PasswordHash: "hash"}
}

func newEntry(owner filevault.ID, name string, kind filevault.EntryKind, parent filevault.ID) *filevault.FileEntry {
	return &filevault.FileEntry{
		ID:       filevault.NewID(),
		OwnerID:  owner,
		Name:     name,
		Kind:     kind,
		ParentID: parent,
	}
}

func TestUserOperations(t *testing.T) {
	repo := New()
	ctx := context.Background()

	user := newUser("bob@dylan.com")
	require.NoError(t, repo.CreateUser(ctx, user))

	t.Run("duplicate email", func(t *testing.T) {
		dup := newUser("bob@dylan.com")
		assert.ErrorIs(t, repo.CreateUser(ctx, dup), filevault.ErrUserExists)
	})

	t.Run("get by id", func(t *testing.T) {
		got, err := repo.GetUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Email, got.Email)

		_, err = repo.GetUser(ctx, filevault.NewID())
		assert.ErrorIs(t, err, filevault.ErrUserNotFound)
	})

	t.Run("get by email", func(t *testing.T) {
		got, err := repo.GetUserByEmail(ctx, "bob@dylan.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)

		_, err = repo.GetUserByEmail(ctx, "nobody@dylan.com")
		assert.ErrorIs(t, err, filevault.ErrUserNotFound)
	})

	t.Run("returned user is a copy", func(t *testing.T) {
		got, err := repo.GetUser(ctx, user.ID)
		require.NoError(t, err)
		got.Email = "mutated@dylan.com"

		again, err := repo.GetUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "bob@dylan.com", again.Email)
	})

	t.Run("count", func(t *testing.T) {
		n, err := repo.CountUsers(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}

func TestEntryOperations(t *testing.T) {
	repo := New()
	ctx := context.Background()
	owner := filevault.NewID()

	folder := newEntry(owner, "docs", filevault.KindFolder, filevault.Root)
	require.NoError(t, repo.CreateEntry(ctx, folder))

	file := newEntry(owner, "a.txt", filevault.KindFile, folder.ID)
	file.Path = "/tmp/blob-1"
	require.NoError(t, repo.CreateEntry(ctx, file))

	t.Run("parent validation", func(t *testing.T) {
		orphan := newEntry(owner, "orphan", filevault.KindFile, filevault.NewID())
		assert.ErrorIs(t, repo.CreateEntry(ctx, orphan), filevault.ErrParentNotFound)

		nested := newEntry(owner, "nested", filevault.KindFile, file.ID)
		assert.ErrorIs(t, repo.CreateEntry(ctx, nested), filevault.ErrParentNotFolder)
	})

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetEntry(ctx, file.ID)
		require.NoError(t, err)
		assert.Equal(t, "a.txt", got.Name)
		assert.Equal(t, "/tmp/blob-1", got.Path)

		_, err = repo.GetEntry(ctx, filevault.NewID())
		assert.ErrorIs(t, err, filevault.ErrEntryNotFound)
	})

	t.Run("get owned", func(t *testing.T) {
		got, err := repo.GetOwnedEntry(ctx, file.ID, owner)
		require.NoError(t, err)
		assert.Equal(t, file.ID, got.ID)

		_, err = repo.GetOwnedEntry(ctx, file.ID, filevault.NewID())
		assert.ErrorIs(t, err, filevault.ErrEntryNotFound)
	})

	t.Run("set visibility", func(t *testing.T) {
		updated, err := repo.SetVisibility(ctx, file.ID, owner, true)
		require.NoError(t, err)
		assert.True(t, updated.Public)

		_, err = repo.SetVisibility(ctx, file.ID, filevault.NewID(), false)
		assert.ErrorIs(t, err, filevault.ErrEntryNotFound)
	})

	t.Run("set variant", func(t *testing.T) {
		require.NoError(t, repo.SetVariant(ctx, file.ID, 250, "/tmp/blob-1_250"))
		require.NoError(t, repo.SetVariant(ctx, file.ID, 250, "/tmp/blob-1_250"))

		got, err := repo.GetEntry(ctx, file.ID)
		require.NoError(t, err)
		assert.Equal(t, "/tmp/blob-1_250", got.Variants[250])

		assert.ErrorIs(t, repo.SetVariant(ctx, filevault.NewID(), 250, "x"), filevault.ErrEntryNotFound)
	})

	t.Run("count", func(t *testing.T) {
		n, err := repo.CountEntries(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})
}

func TestListChildrenPaging(t *testing.T) {
	repo := New()
	ctx := context.Background()
	owner := filevault.NewID()

	for i := 0; i < 45; i++ {
		entry := newEntry(owner, fmt.Sprintf("folder-%02d", i), filevault.KindFolder, filevault.Root)
		require.NoError(t, repo.CreateEntry(ctx, entry))
	}

	tests := []struct {
		name      string
		page      int
		wantCount int
		wantFirst string
	}{
		{"first page", 0, filevault.PageSize, "folder-00"},
		{"second page", 1, filevault.PageSize, "folder-20"},
		{"partial last page", 2, 5, "folder-40"},
		{"past the end", 3, 0, ""},
		{"negative clamps to first", -1, filevault.PageSize, "folder-00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := repo.ListChildren(ctx, owner, filevault.Root, tt.page)
			require.NoError(t, err)
			require.Len(t, entries, tt.wantCount)
			if tt.wantCount > 0 {
				assert.Equal(t, tt.wantFirst, entries[0].Name)
			}
		})
	}

	t.Run("other owner sees nothing", func(t *testing.T) {
		entries, err := repo.ListChildren(ctx, filevault.NewID(), filevault.Root, 0)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
