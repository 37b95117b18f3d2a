package filevault_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultfs/filevault/pkg/filevault"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expectRoot  bool
		expectError bool
	}{
		{name: "empty string is root", input: "", expectRoot: true},
		{name: "zero is root", input: "0", expectRoot: true},
		{name: "valid uuid", input: "6a2f41a3-c54c-fce8-32d2-0324e1c32e22"},
		{name: "garbage", input: "not-an-id", expectError: true},
		{name: "numeric non-zero", input: "42", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := filevault.ParseID(tt.input)
			if tt.expectError {
				assert.ErrorIs(t, err, filevault.ErrInvalidID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectRoot, id.IsRoot())
		})
	}
}

func TestIDRoundTrip(t *testing.T) {
	id := filevault.NewID()
	assert.False(t, id.IsRoot())

	parsed, err := filevault.ParseID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestRootRendersAsZero(t *testing.T) {
	assert.Equal(t, "0", filevault.Root.String())

	text, err := filevault.Root.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "0", string(text))
}

func TestEntryKind(t *testing.T) {
	assert.True(t, filevault.KindFolder.Valid())
	assert.True(t, filevault.KindFile.Valid())
	assert.True(t, filevault.KindImage.Valid())
	assert.False(t, filevault.EntryKind("directory").Valid())
	assert.False(t, filevault.EntryKind("").Valid())

	assert.False(t, filevault.KindFolder.HasContent())
	assert.True(t, filevault.KindFile.HasContent())
	assert.True(t, filevault.KindImage.HasContent())
}
