package services

import (
	"context"
	"sync"
	"time"

	"dvms-arcade-backend/internal/engine"
)

// RequestLimiter counts requests per key in fixed windows.
type RequestLimiter interface {
	Allow(ctx context.Context, key string, now time.Time) (engine.Decision, error)
}

// RedisRequestLimiter shares counters between instances through Redis.
type RedisRequestLimiter struct {
	redis  *RedisService
	limit  int
	window time.Duration
}

func NewRedisRequestLimiter(redis *RedisService, limit int, window time.Duration) *RedisRequestLimiter {
	return &RedisRequestLimiter{redis: redis, limit: limit, window: window}
}

func (l *RedisRequestLimiter) Allow(ctx context.Context, key string, now time.Time) (engine.Decision, error) {
	return l.redis.CheckRateLimit(ctx, key, l.limit, l.window)
}

// MemoryRequestLimiter mirrors the Redis INCR+EXPIRE counter in process.
type MemoryRequestLimiter struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	counters map[string]*windowCounter
}

type windowCounter struct {
	count   int
	resetAt time.Time
}

func NewMemoryRequestLimiter(limit int, window time.Duration) *MemoryRequestLimiter {
	return &MemoryRequestLimiter{
		limit:    limit,
		window:   window,
		counters: make(map[string]*windowCounter),
	}
}

func (l *MemoryRequestLimiter) Allow(ctx context.Context, key string, now time.Time) (engine.Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.counters[key]
	if !ok || !now.Before(c.resetAt) {
		c = &windowCounter{resetAt: now.Add(l.window)}
		l.counters[key] = c
	}
	c.count++
	if c.count <= l.limit {
		return engine.Decision{Allowed: true}, nil
	}
	return engine.Decision{RetryAfter: c.resetAt.Sub(now)}, nil
}

// Prune forgets windows that have ended.
func (l *MemoryRequestLimiter) Prune(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, c := range l.counters {
		if !now.Before(c.resetAt) {
			delete(l.counters, key)
		}
	}
}
