package viacep

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/physiocapture/physiocapture/pkg/brdoc"
)

// cacheTTL bounds staleness of cached addresses. Postal data changes rarely.
const cacheTTL = 24 * time.Hour

// Cached decorates a Lookuper with a Redis cache keyed by the normalized
// CEP. Cache failures degrade to a direct lookup and are only logged.
type Cached struct {
	next   Lookuper
	rdb    *redis.Client
	logger zerolog.Logger
}

// NewCached wraps next with the given Redis client.
func NewCached(next Lookuper, rdb *redis.Client, logger zerolog.Logger) *Cached {
	return &Cached{next: next, rdb: rdb, logger: logger}
}

// NewRedisClient builds a Redis client from a redis:// URL.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

func cacheKey(digits string) string {
	return "cep:" + digits
}

func (c *Cached) Lookup(ctx context.Context, cep string) (*Address, error) {
	if !brdoc.ValidCEP(cep) {
		return nil, ErrInvalidCEP
	}
	key := cacheKey(brdoc.CleanCEP(cep))

	if raw, err := c.rdb.Get(ctx, key).Result(); err == nil {
		var addr Address
		if err := json.Unmarshal([]byte(raw), &addr); err == nil {
			return &addr, nil
		}
	} else if err != redis.Nil {
		c.logger.Warn().Err(err).Msg("cep cache read failed")
	}

	addr, err := c.next.Lookup(ctx, cep)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(addr); err == nil {
		if err := c.rdb.Set(ctx, key, raw, cacheTTL).Err(); err != nil {
			c.logger.Warn().Err(err).Msg("cep cache write failed")
		}
	}

	return addr, nil
}
