package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis-backed client for testing.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err, "failed to start miniredis")

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})

	return client
}

type fakePage struct {
	Names []string `json:"names"`
	Total int64    `json:"total"`
}

func TestListCache_SetGetRoundTrip(t *testing.T) {
	c := NewListCache(setupTestRedis(t), time.Minute)
	ctx := context.Background()

	page := fakePage{Names: []string{"a@x.com", "b@x.com"}, Total: 2}
	require.NoError(t, c.SetUserPage(ctx, 1, 20, page))

	var got fakePage
	hit, err := c.GetUserPage(ctx, 1, 20, &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, page, got)
}

func TestListCache_Miss(t *testing.T) {
	c := NewListCache(setupTestRedis(t), time.Minute)

	var got fakePage
	hit, err := c.GetUserPage(context.Background(), 3, 20, &got)
	require.NoError(t, err)
	assert.False(t, hit, "absent page must be a miss, not an error")
}

func TestListCache_DropUserPages(t *testing.T) {
	c := NewListCache(setupTestRedis(t), time.Minute)
	ctx := context.Background()

	require.NoError(t, c.SetUserPage(ctx, 1, 20, fakePage{Total: 1}))
	require.NoError(t, c.SetUserPage(ctx, 2, 20, fakePage{Total: 1}))
	require.NoError(t, c.SetUserPage(ctx, 1, 50, fakePage{Total: 1}))

	require.NoError(t, c.DropUserPages(ctx))

	for _, pp := range []struct{ page, per int }{{1, 20}, {2, 20}, {1, 50}} {
		var got fakePage
		hit, err := c.GetUserPage(ctx, pp.page, pp.per, &got)
		require.NoError(t, err)
		assert.False(t, hit, "page %d:%d survived invalidation", pp.page, pp.per)
	}
}

func TestListCache_DropEmpty(t *testing.T) {
	c := NewListCache(setupTestRedis(t), time.Minute)
	assert.NoError(t, c.DropUserPages(context.Background()), "dropping with no pages should be a no-op")
}
