package shipping

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

// RateCache stores resolved charges, including the absence of a rate.
type RateCache interface {
	Get(ctx context.Context, postalCode string) (cents int64, found bool, err error)
	Set(ctx context.Context, postalCode string, cents int64, found bool) error
	Delete(ctx context.Context, postalCode string) error
}

// noRate marks a postal code known to have no configured rate.
const noRate = "none"

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisCache{client: client, baseTTL: ttl}
}

func (r *RedisCache) Get(ctx context.Context, postalCode string) (int64, bool, error) {
	val, err := r.client.Get(ctx, cacheKey(postalCode)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, ErrCacheMiss
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis get failed: %w", err)
	}
	if val == noRate {
		return 0, false, nil
	}
	cents, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse cached rate failed: %w", err)
	}
	return cents, true, nil
}

func (r *RedisCache) Set(ctx context.Context, postalCode string, cents int64, found bool) error {
	val := noRate
	if found {
		val = strconv.FormatInt(cents, 10)
	}
	ttl := r.baseTTL + jitter(r.baseTTL)
	if err := r.client.Set(ctx, cacheKey(postalCode), val, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, postalCode string) error {
	if err := r.client.Del(ctx, cacheKey(postalCode)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// jitter spreads expirations over up to a fifth of the base TTL.
func jitter(base time.Duration) time.Duration {
	span := int64(base / 5)
	if span <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(span))
}

func cacheKey(postalCode string) string {
	return fmt.Sprintf("shipping:rate:%s", postalCode)
}
