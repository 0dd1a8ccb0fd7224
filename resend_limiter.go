package authcore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var errResendLimiterUnavailable = errors.New("resend limiter unavailable")

// ResendLimiter tracks the last dispatch time per identity and enforces the
// minimum interval between forced resends.
//
// Check and Record are split on purpose: the engine checks before doing any
// work but records only after the email actually went out, so a failed
// dispatch does not burn the identity's window.
type ResendLimiter interface {
	// Check returns the remaining wait when the identity is still inside
	// the interval, or zero when a dispatch is allowed now.
	Check(ctx context.Context, identity string, now time.Time) (time.Duration, error)
	// Record stores now as the identity's last dispatch time.
	Record(ctx context.Context, identity string, now time.Time) error
}

// memoryResendLimiter is the default process-local implementation: a
// mutex-guarded map of identity to last dispatch time. Entries are evicted
// lazily once they age past the interval, so the table stays bounded by the
// number of identities active inside a single window.
type memoryResendLimiter struct {
	interval time.Duration

	mu   sync.Mutex
	last map[string]time.Time
}

func newMemoryResendLimiter(interval time.Duration) *memoryResendLimiter {
	return &memoryResendLimiter{
		interval: interval,
		last:     make(map[string]time.Time),
	}
}

func (l *memoryResendLimiter) Check(_ context.Context, identity string, now time.Time) (time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	last, ok := l.last[identity]
	if !ok {
		return 0, nil
	}

	elapsed := now.Sub(last)
	if elapsed >= l.interval {
		delete(l.last, identity)
		return 0, nil
	}
	return l.interval - elapsed, nil
}

func (l *memoryResendLimiter) Record(_ context.Context, identity string, now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for id, last := range l.last {
		if now.Sub(last) >= l.interval {
			delete(l.last, id)
		}
	}
	l.last[identity] = now
	return nil
}

// redisResendLimiter externalizes the last-dispatch table to Redis so the
// window holds across processes. The key lives exactly one interval; a
// positive TTL is the remaining wait.
type redisResendLimiter struct {
	redis    *redis.Client
	interval time.Duration
	prefix   string
}

func newRedisResendLimiter(client *redis.Client, interval time.Duration, prefix string) *redisResendLimiter {
	if prefix == "" {
		prefix = "acrs"
	}
	return &redisResendLimiter{
		redis:    client,
		interval: interval,
		prefix:   prefix,
	}
}

func (l *redisResendLimiter) key(identity string) string {
	return l.prefix + ":" + identity
}

func (l *redisResendLimiter) Check(ctx context.Context, identity string, _ time.Time) (time.Duration, error) {
	ttl, err := l.redis.PTTL(ctx, l.key(identity)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errResendLimiterUnavailable, err)
	}
	if ttl > 0 {
		return ttl, nil
	}
	return 0, nil
}

func (l *redisResendLimiter) Record(ctx context.Context, identity string, _ time.Time) error {
	if err := l.redis.Set(ctx, l.key(identity), 1, l.interval).Err(); err != nil {
		return fmt.Errorf("%w: %v", errResendLimiterUnavailable, err)
	}
	return nil
}
