// Package ratelimit provides a redis-backed fixed-window rate limiter for
// the scan endpoints.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keyPrefix = "sentinel:scan_rate:"

// Counter increments a window counter and returns its new value. *redisCounter
// is the production implementation.
type Counter interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

type redisCounter struct {
	client *redis.Client
}

func (c *redisCounter) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("increment %s: %w", key, err)
	}
	return incr.Val(), nil
}

// Limiter enforces a per-key request limit within a fixed window. Redis
// outages fail open: scans keep working without rate limiting.
type Limiter struct {
	counter Counter
	limit   int
	window  time.Duration
	logger  zerolog.Logger
}

// New creates a limiter backed by redis. A limit of zero disables limiting.
func New(addr, password string, limit int, window time.Duration, logger zerolog.Logger) *Limiter {
	var counter Counter
	if addr != "" {
		counter = &redisCounter{client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		})}
	}
	return NewWithCounter(counter, limit, window, logger)
}

// NewWithCounter creates a limiter over an explicit counter implementation.
func NewWithCounter(counter Counter, limit int, window time.Duration, logger zerolog.Logger) *Limiter {
	return &Limiter{
		counter: counter,
		limit:   limit,
		window:  window,
		logger:  logger.With().Str("component", "ratelimit").Logger(),
	}
}

// Allow reports whether the caller identified by key may proceed, along with
// the request count in the current window.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, int64, error) {
	if l.limit <= 0 || l.counter == nil {
		return true, 0, nil
	}

	window := time.Now().Unix() / int64(l.window.Seconds())
	redisKey := fmt.Sprintf("%s%s:%d", keyPrefix, key, window)

	count, err := l.counter.Incr(ctx, redisKey, l.window)
	if err != nil {
		l.logger.Warn().Err(err).Msg("rate limit check failed, allowing request")
		return true, 0, nil
	}
	return count <= int64(l.limit), count, nil
}

// Limit returns the configured per-window limit.
func (l *Limiter) Limit() int {
	return l.limit
}
