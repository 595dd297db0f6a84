// internal/common/database/redis.go
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"applicant-portal/internal/common/config"
)

const connectTimeout = 5 * time.Second

// RedisClient is the shared key/value backend for portal state that must
// survive across processes, currently the bearer token.
type RedisClient struct {
	Client *redis.Client
}

// NewRedis builds a client for cfg without dialing.
func NewRedis(cfg config.RedisConfig) *RedisClient {
	return &RedisClient{Client: redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  connectTimeout,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		// one CLI process issues a handful of sequential commands
		PoolSize: 4,
	})}
}

// Connect builds a client and checks the server answers before returning it.
func Connect(ctx context.Context, cfg config.RedisConfig) (*RedisClient, error) {
	c := NewRedis(cfg)
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// NewRedisFromClient wraps an existing client, e.g. a redismock one.
func NewRedisFromClient(c *redis.Client) *RedisClient {
	return &RedisClient{Client: c}
}

func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", c.Client.Options().Addr, err)
	}
	return nil
}

func (c *RedisClient) Close() error {
	if c == nil || c.Client == nil {
		return nil
	}
	return c.Client.Close()
}

// Fetch returns the string at key; a missing or expired key reads as "".
func (c *RedisClient) Fetch(ctx context.Context, key string) (string, error) {
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

// Put stores value at key. A zero ttl keeps it until removed.
func (c *RedisClient) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

// Remove deletes key; removing a missing key is not an error.
func (c *RedisClient) Remove(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}
