package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces Vigil counters inside a shared Redis instance.
const keyPrefix = "vigil:counter:"

// Redis implements Store against a Redis instance so multiple Vigil
// processes share one set of counters.
//
// Windows are clock-aligned: the window start is the current time
// truncated to the window size, and the bucket timestamp is part of the
// Redis key. INCR is atomic on the server, so concurrent increments from
// any number of processes never lose updates. Expired buckets are removed
// by Redis key expiry (window times the eviction grace), not by a
// client-side sweep.
type Redis struct {
	client *redis.Client
}

// RedisConfig configures the Redis counter store.
type RedisConfig struct {
	// Addr is the host:port of the Redis server.
	Addr string

	// Password is the optional AUTH password.
	Password string

	// DB is the Redis database number.
	DB int
}

// NewRedis creates a Redis-backed counter store and verifies connectivity.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	return &Redis{client: client}, nil
}

// NewRedisFromClient wraps an existing client. The caller retains
// ownership of the client's lifecycle.
func NewRedisFromClient(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Incr increments the counter for key in the current clock-aligned window.
func (r *Redis) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	windowStart := time.Now().Truncate(window)
	bucketKey := r.bucketKey(key, windowStart)

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, bucketKey)
	pipe.PExpire(ctx, bucketKey, window*evictionGrace)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, windowStart, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return incr.Val(), windowStart, nil
}

// Peek returns the current count for key without mutating.
func (r *Redis) Peek(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	windowStart := time.Now().Truncate(window)
	bucketKey := r.bucketKey(key, windowStart)

	count, err := r.client.Get(ctx, bucketKey).Int64()
	if err == redis.Nil {
		return 0, windowStart, nil
	}
	if err != nil {
		return 0, windowStart, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return count, windowStart, nil
}

// Close closes the underlying Redis client.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) bucketKey(key string, windowStart time.Time) string {
	return fmt.Sprintf("%s%s:%d", keyPrefix, key, windowStart.UnixMilli())
}
