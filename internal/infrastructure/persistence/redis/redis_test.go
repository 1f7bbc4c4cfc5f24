package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientKey(t *testing.T) {
	c := &Client{prefix: "wc:"}
	assert.Equal(t, "wc:presence:connections", c.key("presence", "connections"))
	assert.Equal(t, "wc:", c.key())
}

func TestRateLimiter_WindowKey(t *testing.T) {
	l := NewRateLimiter(&Client{prefix: "wc:"}, 10, time.Second)
	at := time.UnixMilli(5_500)

	assert.Equal(t, "wc:ratelimit:conn-1:5", l.windowKey("conn-1", at))
	assert.Equal(t, l.windowKey("conn-1", at), l.windowKey("conn-1", at.Add(400*time.Millisecond)))
	assert.NotEqual(t, l.windowKey("conn-1", at), l.windowKey("conn-1", at.Add(600*time.Millisecond)))
}

func TestRateLimiter_Unlimited(t *testing.T) {
	// No client access happens when the limit is disabled.
	l := NewRateLimiter(nil, 0, time.Second)
	ok, err := l.Allow(context.Background(), "conn")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPresence_Cutoff(t *testing.T) {
	p := NewPresence(&Client{}, 0)
	p.now = func() time.Time { return time.UnixMilli(1_000_000) }

	assert.Equal(t, DefaultPresenceTTL, p.TTL())
	assert.Equal(t, "880000", p.cutoff())

	p = NewPresence(&Client{}, 30*time.Second)
	p.now = func() time.Time { return time.UnixMilli(1_000_000) }
	assert.Equal(t, "970000", p.cutoff())
}
