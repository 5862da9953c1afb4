package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is the production Store backend. One client is constructed at
// startup and shared by every component; call sites never open their own
// connections.
type Redis struct {
	client *redis.Client
}

// NewRedis builds a Store over a single shared Redis client.
func NewRedis(addr string, db int) *Redis {
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   db,
		}),
	}
}

// Ping verifies connectivity; used at startup to fail fast.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrMiss
	}
	if err != nil {
		return "", fmt.Errorf("redis get %q: %w", key, err)
	}
	return val, nil
}

func (r *Redis) SetEX(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis setex %q: %w", key, err)
	}
	return nil
}

func (r *Redis) LPush(ctx context.Context, key, value string) error {
	if err := r.client.LPush(ctx, key, value).Err(); err != nil {
		return fmt.Errorf("redis lpush %q: %w", key, err)
	}
	return nil
}

func (r *Redis) BRPop(ctx context.Context, wait time.Duration, key string) (string, error) {
	res, err := r.client.BRPop(ctx, wait, key).Result()
	if err == redis.Nil {
		return "", ErrMiss
	}
	if err != nil {
		return "", fmt.Errorf("redis brpop %q: %w", key, err)
	}
	// BRPOP replies [key, value].
	if len(res) != 2 {
		return "", ErrMiss
	}
	return res[1], nil
}

func (r *Redis) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := r.client.Expire(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("redis expire %q: %w", key, err)
	}
	return nil
}

func (r *Redis) Info(ctx context.Context) (Stats, error) {
	keys, err := r.client.DBSize(ctx).Result()
	if err != nil {
		return Stats{}, fmt.Errorf("redis dbsize: %w", err)
	}
	st := Stats{Keys: keys}
	if mem, err := r.client.Info(ctx, "memory").Result(); err == nil {
		st.MemoryUsed = parseUsedMemory(mem)
	}
	return st, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// parseUsedMemory pulls used_memory_human out of an INFO memory reply.
func parseUsedMemory(info string) string {
	for _, line := range strings.Split(info, "\r\n") {
		if v, ok := strings.CutPrefix(line, "used_memory_human:"); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
