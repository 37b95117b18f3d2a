package filevault_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultfs/filevault/pkg/filevault"
	kvmemory "github.com/vaultfs/filevault/pkg/filevault/kv/memory"
)

func TestSessionIssueResolve(t *testing.T) {
	ctx := context.Background()
	sessions := filevault.NewSessionStore(kvmemory.New(), time.Minute)

	userID := filevault.NewID()
	token, err := sessions.Issue(ctx, userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	resolved, ok, err := sessions.Resolve(ctx, token)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, userID, resolved)
}

func TestSessionExpiry(t *testing.T) {
	ctx := context.Background()

	now := time.Now()
	clock := &now
	kv := kvmemory.NewWithClock(func() time.Time { return *clock })
	sessions := filevault.NewSessionStore(kv, time.Second)

	token, err := sessions.Issue(ctx, filevault.NewID())
	require.NoError(t, err)

	// Still valid just inside the TTL.
	later := now.Add(900 * time.Millisecond)
	clock = &later
	_, ok, err := sessions.Resolve(ctx, token)
	require.NoError(t, err)
	assert.True(t, ok)

	// Expired just past it.
	expired := now.Add(1200 * time.Millisecond)
	clock = &expired
	_, ok, err = sessions.Resolve(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionRevoke(t *testing.T) {
	ctx := context.Background()
	sessions := filevault.NewSessionStore(kvmemory.New(), time.Minute)

	token, err := sessions.Issue(ctx, filevault.NewID())
	require.NoError(t, err)

	require.NoError(t, sessions.Revoke(ctx, token))

	_, ok, err := sessions.Resolve(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok)

	// Revoking twice is not an error.
	assert.NoError(t, sessions.Revoke(ctx, token))
}

func TestResolveUnknownToken(t *testing.T) {
	sessions := filevault.NewSessionStore(kvmemory.New(), time.Minute)

	_, ok, err := sessions.Resolve(context.Background(), "never-issued")
	require.NoError(t, err)
	assert.False(t, ok)
}
