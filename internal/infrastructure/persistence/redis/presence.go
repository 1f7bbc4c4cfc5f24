package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultPresenceTTL is how long a connection counts as online after its
// last heartbeat.
const DefaultPresenceTTL = 2 * time.Minute

// Presence tracks open realtime connections in a sorted set scored by the
// last heartbeat in unix milliseconds. Several server processes may share
// one set.
type Presence struct {
	c   *Client
	ttl time.Duration
	now func() time.Time
}

// NewPresence creates a tracker. A non-positive ttl means DefaultPresenceTTL.
func NewPresence(c *Client, ttl time.Duration) *Presence {
	if ttl <= 0 {
		ttl = DefaultPresenceTTL
	}
	return &Presence{c: c, ttl: ttl, now: time.Now}
}

// TTL returns how long an entry counts without renewal.
func (p *Presence) TTL() time.Duration {
	return p.ttl
}

func (p *Presence) setKey() string {
	return p.c.key("presence", "connections")
}

// Join marks the connection as online. Open connections call Join again
// periodically to renew their score.
func (p *Presence) Join(ctx context.Context, connID string) error {
	err := p.c.rdb.ZAdd(ctx, p.setKey(), redis.Z{
		Score:  float64(p.now().UnixMilli()),
		Member: connID,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to mark connection online: %w", err)
	}
	return nil
}

// Leave removes the connection.
func (p *Presence) Leave(ctx context.Context, connID string) error {
	if err := p.c.rdb.ZRem(ctx, p.setKey(), connID).Err(); err != nil {
		return fmt.Errorf("failed to mark connection offline: %w", err)
	}
	return nil
}

// Count returns the number of connections seen within the TTL.
func (p *Presence) Count(ctx context.Context) (int64, error) {
	n, err := p.c.rdb.ZCount(ctx, p.setKey(), p.cutoff(), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count connections: %w", err)
	}
	return n, nil
}

// CleanupStale drops connections older than the TTL, e.g. left behind by a
// crashed process, and returns how many were removed.
func (p *Presence) CleanupStale(ctx context.Context) (int64, error) {
	n, err := p.c.rdb.ZRemRangeByScore(ctx, p.setKey(), "-inf", "("+p.cutoff()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to clean up presence: %w", err)
	}
	return n, nil
}

func (p *Presence) cutoff() string {
	return strconv.FormatInt(p.now().Add(-p.ttl).UnixMilli(), 10)
}
