// Package cache connects to the Redis instance backing the report cache.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultDialTimeout bounds the initial ping.
const DefaultDialTimeout = 5 * time.Second

// Connect dials addr and pings it. The client is closed again when the ping fails.
func Connect(ctx context.Context, addr string, timeout time.Duration) (*redis.Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("cache: redis address is empty")
	}
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: timeout,
	})

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: ping %s: %w", addr, err)
	}
	return client, nil
}
