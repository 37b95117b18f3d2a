package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGetDel(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "auth_abc", "user-1", time.Minute))

	value, ok, err := store.Get(ctx, "auth_abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "user-1", value)

	require.NoError(t, store.Del(ctx, "auth_abc"))

	_, ok, err = store.Get(ctx, "auth_abc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetUnknownKey(t *testing.T) {
	store := New()

	_, ok, err := store.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExpiry(t *testing.T) {
	base := time.Now()
	current := base
	store := NewWithClock(func() time.Time { return current })
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", "v", time.Second))

	current = base.Add(900 * time.Millisecond)
	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	current = base.Add(1200 * time.Millisecond)
	_, ok, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	// Expired entries are purged on read.
	current = base
	_, ok, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDelIsIdempotent(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.Del(ctx, "never-set"))
	require.NoError(t, store.Del(ctx, "never-set"))
}
