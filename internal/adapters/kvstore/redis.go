package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tactabot/regista/pkg/metrics"
)

const redisDialTimeout = 5 * time.Second

// RedisOption applies a configuration option to the Redis store.
type RedisOption func(*Redis)

// WithTTL sets an expiry on written keys. Zero keeps keys forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// Redis implements Store on a Redis server.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Store = (*Redis)(nil)

// NewRedis connects to the server at rawURL
// (redis://[user:password@]host:port/db) and verifies it responds.
func NewRedis(ctx context.Context, rawURL string, opts ...RedisOption) (*Redis, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	r := &Redis{client: redis.NewClient(opt)}
	for _, o := range opts {
		o(r)
	}

	pingCtx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()
	if err := r.client.Ping(pingCtx).Err(); err != nil {
		_ = r.client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return r, nil
}

// Get returns the value at key, or ErrNotFound.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	value, err := r.client.Get(ctx, key).Bytes()
	metrics.RecordStoreLatency("get", time.Since(start).Seconds()*1000)

	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		metrics.RecordStoreError("get")
		return nil, fmt.Errorf("redis get %q: %w", key, err)
	}
	return value, nil
}

// Set writes the value at key with the configured TTL, if any.
func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	err := r.client.Set(ctx, key, value, r.ttl).Err()
	metrics.RecordStoreLatency("set", time.Since(start).Seconds()*1000)

	if err != nil {
		metrics.RecordStoreError("set")
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (r *Redis) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := r.client.Del(ctx, key).Err()
	metrics.RecordStoreLatency("delete", time.Since(start).Seconds()*1000)

	if err != nil {
		metrics.RecordStoreError("delete")
		return fmt.Errorf("redis delete %q: %w", key, err)
	}
	return nil
}

// Ping reports whether the server responds.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the client connections.
func (r *Redis) Close() error {
	return r.client.Close()
}
