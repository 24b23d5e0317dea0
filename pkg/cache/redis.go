package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores entries in Redis. Network failures are retried with
// backoff and then reported as [ErrUnavailable].
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache connects to addr (host:port or a redis:// URL) and pings
// the server.
func NewRedisCache(ctx context.Context, addr, prefix string) (*RedisCache, error) {
	opts, err := redis.ParseURL(addr)
	if err != nil {
		opts = &redis.Options{Addr: addr}
	}
	c := &RedisCache{client: redis.NewClient(opts), prefix: prefix}
	if err := c.do(ctx, func() error { return c.client.Ping(ctx).Err() }); err != nil {
		_ = c.client.Close()
		return nil, err
	}
	return c, nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := c.do(ctx, func() error {
		var err error
		data, err = c.client.Get(ctx, c.prefix+key).Bytes()
		return err
	})
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.do(ctx, func() error {
		return c.client.Set(ctx, c.prefix+key, data, ttl).Err()
	})
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.do(ctx, func() error {
		return c.client.Del(ctx, c.prefix+key).Err()
	})
}

func (c *RedisCache) Close() error { return c.client.Close() }

// do runs op with retries on network errors.
func (c *RedisCache) do(ctx context.Context, op func() error) error {
	err := RetryWithBackoff(ctx, func() error {
		err := op()
		if isNetwork(err) {
			return Retryable(err)
		}
		return err
	})
	if IsRetryable(err) {
		return fmt.Errorf("%w: %v", ErrUnavailable, errors.Unwrap(err))
	}
	return err
}

func isNetwork(err error) bool {
	if err == nil || errors.Is(err, redis.Nil) {
		return false
	}
	var ne net.Error
	return errors.As(err, &ne) || errors.Is(err, redis.ErrClosed)
}

var _ Cache = (*RedisCache)(nil)
