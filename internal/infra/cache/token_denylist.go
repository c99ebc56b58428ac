package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// 認証サービスがログアウト時に書くキー
const denylistPrefix = "blacklist:"

type RedisTokenDenylist struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisTokenDenylist(client redis.UniversalClient) *RedisTokenDenylist {
	return &RedisTokenDenylist{client: client, prefix: denylistPrefix}
}

// NewRedisClient は疎通確認まで行う。
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (d *RedisTokenDenylist) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := d.client.Exists(ctx, d.prefix+token).Result()
	if err != nil {
		return false, fmt.Errorf("check denylist: %w", err)
	}
	return n > 0, nil
}

// Revoke はテストと運用スクリプト用。ttl はトークンの残り有効期限。
func (d *RedisTokenDenylist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	return d.client.Set(ctx, d.prefix+token, "true", ttl).Err()
}
