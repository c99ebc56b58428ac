package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"ecorder/internal/infra/cache"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TEST_REDIS_ADDR が無ければスキップ
func TestRedisTokenDenylist(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	client, err := cache.NewRedisClient(ctx, addr, os.Getenv("TEST_REDIS_PASSWORD"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	d := cache.NewRedisTokenDenylist(client)
	token := uuid.NewString()

	revoked, err := d.IsRevoked(ctx, token)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, d.Revoke(ctx, token, time.Minute))

	revoked, err = d.IsRevoked(ctx, token)
	require.NoError(t, err)
	assert.True(t, revoked)

	// 認証サービスと同じキー
	n, err := client.Exists(ctx, "blacklist:"+token).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
