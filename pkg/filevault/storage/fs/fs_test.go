package fs

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultfs/filevault/pkg/filevault"
)

func TestWriteAndRead(t *testing.T) {
	backend, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	ctx := context.Background()

	path, err := backend.Write(ctx, strings.NewReader("Hello Webstack!"))
	require.NoError(t, err)
	require.NotEmpty(t, path)

	rc, err := backend.Read(ctx, path)
	require.NoError(t, err)
	defer rc.Close()

	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "Hello Webstack!", string(content))
}

func TestWriteGeneratesUniquePaths(t *testing.T) {
	backend, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	ctx := context.Background()

	first, err := backend.Write(ctx, strings.NewReader("one"))
	require.NoError(t, err)
	second, err := backend.Write(ctx, strings.NewReader("two"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestReadMissing(t *testing.T) {
	dir := t.TempDir()
	backend, err := New(Config{BaseDir: dir})
	require.NoError(t, err)

	_, err = backend.Read(context.Background(), filepath.Join(dir, "does-not-exist"))
	require.Error(t, err)
	assert.ErrorIs(t, err, filevault.ErrEntryNotFound)

	var se *filevault.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "read", se.Op)
}

func TestWriteVariant(t *testing.T) {
	backend, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	ctx := context.Background()

	base, err := backend.Write(ctx, strings.NewReader("original"))
	require.NoError(t, err)

	path, err := backend.WriteVariant(ctx, base, 250, strings.NewReader("small"))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%s_250", base), path)

	// Rewriting the same variant replaces the bytes.
	path, err = backend.WriteVariant(ctx, base, 250, strings.NewReader("smaller"))
	require.NoError(t, err)

	rc, err := backend.Read(ctx, path)
	require.NoError(t, err)
	defer rc.Close()
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "smaller", string(content))

	// The original is untouched.
	rc, err = backend.Read(ctx, base)
	require.NoError(t, err)
	defer rc.Close()
	content, err = io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "original", string(content))
}

func TestDefaultBaseDir(t *testing.T) {
	backend, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseDir, backend.baseDir)
}
