package memory

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultfs/filevault/pkg/filevault"
)

func TestWriteReadRoundTrip(t *testing.T) {
	backend := New()
	ctx := context.Background()

	path, err := backend.Write(ctx, strings.NewReader("payload"))
	require.NoError(t, err)
	require.NotEmpty(t, path)
	assert.Equal(t, 1, backend.Len())

	rc, err := backend.Read(ctx, path)
	require.NoError(t, err)
	defer rc.Close()
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(content))
}

func TestReadUnknownPath(t *testing.T) {
	backend := New()

	_, err := backend.Read(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, filevault.ErrEntryNotFound)
}

func TestVariantOverwrite(t *testing.T) {
	backend := New()
	ctx := context.Background()

	base, err := backend.Write(ctx, strings.NewReader("original"))
	require.NoError(t, err)

	path, err := backend.WriteVariant(ctx, base, 100, strings.NewReader("v1"))
	require.NoError(t, err)
	assert.Equal(t, base+"_100", path)

	_, err = backend.WriteVariant(ctx, base, 100, strings.NewReader("v2"))
	require.NoError(t, err)
	assert.Equal(t, 2, backend.Len())

	rc, err := backend.Read(ctx, path)
	require.NoError(t, err)
	defer rc.Close()
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(content))
}
