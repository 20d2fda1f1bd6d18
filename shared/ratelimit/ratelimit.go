// Package ratelimit throttles requests per client key with fixed windows kept
// either in process or in Redis, shared between replicas.
package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Result is the outcome of a single Allow call.
type Result struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter decides whether the client identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// MemoryLimiter counts requests per key in fixed windows. The window opens on
// a key's first request and the count resets when it closes.
type MemoryLimiter struct {
	requests int
	window   time.Duration
	nowFn    func() time.Time
	mu       sync.Mutex
	clients  map[string]*windowCount
}

type windowCount struct {
	count   int
	resetAt time.Time
}

// NewMemoryLimiter allows requests per window for every key.
func NewMemoryLimiter(requests int, window time.Duration) *MemoryLimiter {
	if requests < 1 {
		requests = 1
	}
	return &MemoryLimiter{
		requests: requests,
		window:   window,
		nowFn:    time.Now,
		clients:  make(map[string]*windowCount),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := l.nowFn()

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.clients[key]
	if !ok || !now.Before(entry.resetAt) {
		l.cleanupLocked(now)
		entry = &windowCount{resetAt: now.Add(l.window)}
		l.clients[key] = entry
	}

	if entry.count >= l.requests {
		return Result{Allowed: false, RetryAfter: entry.resetAt.Sub(now)}, nil
	}
	entry.count++
	return Result{Allowed: true}, nil
}

func (l *MemoryLimiter) cleanupLocked(now time.Time) {
	for key, entry := range l.clients {
		if !now.Before(entry.resetAt) {
			delete(l.clients, key)
		}
	}
}

// RedisLimiter counts requests per key in fixed windows stored in Redis.
type RedisLimiter struct {
	client   redis.UniversalClient
	prefix   string
	requests int64
	window   time.Duration
}

// NewRedisLimiter allows requests per window for every key, namespaced by prefix.
func NewRedisLimiter(client redis.UniversalClient, prefix string, requests int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:   client,
		prefix:   prefix,
		requests: int64(requests),
		window:   window,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	redisKey := l.prefix + ":" + key

	// SETNX and INCR run in one transaction so the counter never exists
	// without its expiry.
	var incr *redis.IntCmd
	if _, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, redisKey, 0, l.window)
		incr = pipe.Incr(ctx, redisKey)
		return nil
	}); err != nil {
		return Result{}, fmt.Errorf("redis incr: %w", err)
	}

	count := incr.Val()
	if count <= l.requests {
		return Result{Allowed: true}, nil
	}

	ttl, err := l.client.PTTL(ctx, redisKey).Result()
	if err != nil {
		return Result{}, fmt.Errorf("redis pttl: %w", err)
	}
	if ttl < 0 {
		ttl = l.window
	}
	return Result{Allowed: false, RetryAfter: ttl}, nil
}

// Connect initializes a Redis client from URL or host:port input.
func Connect(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err == nil {
		return redis.NewClient(opt), nil
	}
	if _, _, splitErr := net.SplitHostPort(redisURL); splitErr != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

type rejection struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	RetryAfter int64  `json:"retryAfter"`
}

// Middleware rejects requests over the limit with 429, keyed by client IP.
// Limiter failures let the request through.
func Middleware(l Limiter, message string, logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := l.Allow(r.Context(), clientIP(r))
			if err != nil {
				logger.Warn().Err(err).Msg("rate limiter unavailable")
				next.ServeHTTP(w, r)
				return
			}
			if res.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			seconds := int64(math.Ceil(res.RetryAfter.Seconds()))
			w.Header().Set("Retry-After", strconv.FormatInt(seconds, 10))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(rejection{
				Success:    false,
				Message:    message,
				RetryAfter: seconds,
			})
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
