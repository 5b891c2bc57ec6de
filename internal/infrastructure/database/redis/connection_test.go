package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/undercontrol/storefront/internal/infrastructure/storage"
)

var _ storage.Backend = (*Client)(nil)

// Runs against a real server only when REDIS_TEST_ADDR is set
func newTestClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	c := NewClient(redis.NewClient(&redis.Options{Addr: addr}), time.Minute)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Ping(context.Background()))
	return c
}

func TestClientKeyValue(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	key := "test:" + uuid.NewString()

	_, found, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, key, `{"grip":2}`))
	v, found, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"grip":2}`, v)

	ttl, err := c.Redis.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, c.Delete(ctx, key))
	_, found, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestClientReportsUnreachableServer(t *testing.T) {
	c := NewClient(redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	}), 0)
	defer c.Close()

	_, _, err := c.Get(context.Background(), "k")
	assert.Error(t, err)
}
