package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter is a fixed window request counter backed by Redis.
// A nil *Limiter allows every request.
type Limiter struct {
	client   *redis.Client
	requests int
	window   time.Duration
}

func NewLimiter(client *redis.Client, requests int, window time.Duration) *Limiter {
	return &Limiter{
		client:   client,
		requests: requests,
		window:   window,
	}
}

func ipKey(ip, purpose string) string {
	return fmt.Sprintf("ratelimit:%s:ip:%s", purpose, ip)
}

// AllowIPRequestWithPurpose counts one request for ip and purpose and reports
// whether it fits in the current window. The count and the check are a single
// INCR. The window starts with the first request counted for the key.
func (l *Limiter) AllowIPRequestWithPurpose(ctx context.Context, ip, purpose string) (bool, error) {
	if l == nil || l.client == nil {
		return true, nil
	}

	key := ipKey(ip, purpose)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, l.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return true, fmt.Errorf("failed to record request: %w", err)
	}

	return incr.Val() <= int64(l.requests), nil
}
