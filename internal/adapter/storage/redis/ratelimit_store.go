package redis

import (
	"context"
	"fmt"
	"time"

	"harvest-settlement/internal/core/ports"

	goredis "github.com/redis/go-redis/v9"
)

// RateLimitStore implements ports.FailureCounter with fixed-window counters in Redis.
type RateLimitStore struct {
	client *goredis.Client
	prefix string
	now    func() time.Time
}

// NewRateLimitStore creates a new Redis-backed rate limit store.
func NewRateLimitStore(client *goredis.Client) *RateLimitStore {
	return &RateLimitStore{
		client: client,
		prefix: "ratelimit:",
		now:    time.Now,
	}
}

// WithClock overrides the clock used to compute windows.
func (s *RateLimitStore) WithClock(now func() time.Time) *RateLimitStore {
	s.now = now
	return s
}

// windowKey scopes key to a discrete window: unix time / window length.
func (s *RateLimitStore) windowKey(key string, window time.Duration) (string, int64) {
	size := int64(window.Seconds())
	if size < 1 {
		size = 1
	}
	windowID := s.now().Unix() / size
	return fmt.Sprintf("%s%s:%d", s.prefix, key, windowID), (windowID + 1) * size
}

// Peek reports the current window without counting. Allowed is false once limit is reached.
func (s *RateLimitStore) Peek(ctx context.Context, key string, limit int64, window time.Duration) (*ports.RateLimitResult, error) {
	redisKey, resetAt := s.windowKey(key, window)

	count, err := s.client.Get(ctx, redisKey).Int64()
	if err != nil && err != goredis.Nil {
		return nil, fmt.Errorf("redis rate limit get: %w", err)
	}

	return result(count, limit, resetAt), nil
}

// Hit counts one event in the current window.
func (s *RateLimitStore) Hit(ctx context.Context, key string, limit int64, window time.Duration) (*ports.RateLimitResult, error) {
	redisKey, resetAt := s.windowKey(key, window)

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis rate limit incr: %w", err)
	}

	// Set expiry only on first increment (new window)
	if count == 1 {
		s.client.Expire(ctx, redisKey, window+time.Second) // +1s safety margin
	}

	return result(count, limit, resetAt), nil
}

func result(count, limit, resetAt int64) *ports.RateLimitResult {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return &ports.RateLimitResult{
		Allowed:   count < limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}
