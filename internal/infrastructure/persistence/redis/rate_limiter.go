package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// RateLimiter is a fixed-window counter: at most Limit calls per key and
// window. The window index is part of the key, so a counter never spans
// two windows.
type RateLimiter struct {
	c      *Client
	limit  int64
	window time.Duration
	now    func() time.Time
}

// NewRateLimiter creates a limiter. A non-positive limit allows everything.
func NewRateLimiter(c *Client, limit int, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Second
	}
	return &RateLimiter{c: c, limit: int64(limit), window: window, now: time.Now}
}

// Allow counts one call for key and reports whether it is within the limit.
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.limit <= 0 {
		return true, nil
	}

	k := l.windowKey(key, l.now())

	pipe := l.c.rdb.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to count event: %w", err)
	}
	return incr.Val() <= l.limit, nil
}

func (l *RateLimiter) windowKey(key string, now time.Time) string {
	slot := now.UnixMilli() / l.window.Milliseconds()
	return l.c.key("ratelimit", key, strconv.FormatInt(slot, 10))
}
