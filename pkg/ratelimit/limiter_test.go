package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestLimiterBlocksAfterLimit(t *testing.T) {
	_, client := newRedis(t)
	l := New(client, time.Minute)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		d := l.Allow(ctx, "ws-1", 3)
		assert.True(t, d.Allowed, "hit %d", i)
		assert.Equal(t, 3-i, d.Remaining)
	}
	d := l.Allow(ctx, "ws-1", 3)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	other := l.Allow(ctx, "ws-2", 3)
	assert.True(t, other.Allowed)
}

func TestLimiterWindowExpires(t *testing.T) {
	mr, client := newRedis(t)
	l := New(client, time.Minute)
	ctx := context.Background()

	l.Allow(ctx, "ws-1", 1)
	assert.False(t, l.Allow(ctx, "ws-1", 1).Allowed)

	mr.FastForward(61 * time.Second)
	assert.True(t, l.Allow(ctx, "ws-1", 1).Allowed)
}

func TestLimiterFailsOpen(t *testing.T) {
	mr, client := newRedis(t)
	var seen error
	l := New(client, time.Minute).OnError(func(err error) { seen = err })

	mr.Close()
	d := l.Allow(context.Background(), "ws-1", 1)
	assert.True(t, d.Allowed)
	assert.Error(t, seen)

	assert.True(t, New(nil, 0).Allow(context.Background(), "ws-1", 1).Allowed)
}
