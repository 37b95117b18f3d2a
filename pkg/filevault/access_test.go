package filevault_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vaultfs/filevault/pkg/filevault"
)

func TestCanRead(t *testing.T) {
	owner := filevault.NewID()
	stranger := filevault.NewID()

	public := &filevault.FileEntry{ID: filevault.NewID(), OwnerID: owner, Public: true}
	private := &filevault.FileEntry{ID: filevault.NewID(), OwnerID: owner, Public: false}

	tests := []struct {
		name      string
		entry     *filevault.FileEntry
		requester filevault.ID
		want      bool
	}{
		{name: "public readable by owner", entry: public, requester: owner, want: true},
		{name: "public readable by stranger", entry: public, requester: stranger, want: true},
		{name: "public readable unauthenticated", entry: public, requester: filevault.Root, want: true},
		{name: "private readable by owner", entry: private, requester: owner, want: true},
		{name: "private hidden from stranger", entry: private, requester: stranger, want: false},
		{name: "private hidden unauthenticated", entry: private, requester: filevault.Root, want: false},
		{name: "nil entry never readable", entry: nil, requester: owner, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, filevault.CanRead(tt.entry, tt.requester))
		})
	}
}
