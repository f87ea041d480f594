package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheMiss(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close() //nolint:errcheck

	_, hit, err := c.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestMemoryCacheSetGet(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("value"), 0))

	got, hit, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, []byte("value"), got)
}

func TestMemoryCacheZeroTTLNeverExpires(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	now := time.Unix(1700000000, 0)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))

	now = now.Add(1000 * time.Hour)
	_, hit, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	now := time.Unix(1700000000, 0)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	_, hit, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, hit)

	now = now.Add(2 * time.Minute)
	_, hit, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, hit, "entry past its TTL must not be returned")
}

func TestMemoryCacheReturnsCopies(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	original := []byte("stable")
	require.NoError(t, c.Set(ctx, "k", original, 0))
	original[0] = 'X'

	got, hit, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, []byte("stable"), got)

	got[0] = 'Y'
	again, _, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("stable"), again)
}
