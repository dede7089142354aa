package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when slept on or moved explicitly.
type fakeClock struct {
	now   time.Time
	slept []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestBackoff(t *testing.T) {
	base := 2 * time.Second
	assert.Equal(t, 2*time.Second, Backoff(base, 0))
	assert.Equal(t, 3*time.Second, Backoff(base, 1))
	assert.Equal(t, 4500*time.Millisecond, Backoff(base, 2))
	assert.Equal(t, MaxBackoff, Backoff(base, 50))
	assert.Equal(t, base, Backoff(base, -3))
}

func TestBeforeCall_UnderLimitDoesNotWait(t *testing.T) {
	clock := newFakeClock()
	l := New(Config{RequestsPerMinute: 3, BaseInterval: time.Second}, clock)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, l.BeforeCall(ctx))
		l.Record(10)
	}
	assert.Empty(t, clock.slept)
	assert.Equal(t, 3, l.Snapshot().Calls)
	assert.Equal(t, 30, l.Snapshot().Tokens)
}

func TestBeforeCall_AtLimitSuspendsForBackoff(t *testing.T) {
	clock := newFakeClock()
	base := 2 * time.Second
	l := New(Config{RequestsPerMinute: 3, BaseInterval: base}, clock)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, l.BeforeCall(ctx))
		l.Record(0)
	}

	clock.Advance(500 * time.Millisecond)
	start := clock.Now()
	require.NoError(t, l.BeforeCall(ctx))

	require.Len(t, clock.slept, 1)
	assert.Equal(t, base-500*time.Millisecond, clock.slept[0])
	assert.GreaterOrEqual(t, clock.Now().Sub(start)+500*time.Millisecond, Backoff(base, 0))
	assert.Equal(t, 0, l.Snapshot().Calls, "call counter resets after the wait")
}

func TestBeforeCall_OverageGrowsBackoff(t *testing.T) {
	clock := newFakeClock()
	base := time.Second
	l := New(Config{RequestsPerMinute: 2, BaseInterval: base}, clock)
	ctx := context.Background()

	// Calls spaced wider than the base interval never wait, so the
	// counter keeps climbing past the limit.
	for i := 0; i < 4; i++ {
		require.NoError(t, l.BeforeCall(ctx))
		l.Record(0)
		clock.Advance(1600 * time.Millisecond)
	}
	assert.Equal(t, 4, l.Snapshot().Calls)
	// overage 2 => 2.25s backoff, 1.6s already elapsed
	require.NoError(t, l.BeforeCall(ctx))
	require.Len(t, clock.slept, 1)
	assert.Equal(t, 650*time.Millisecond, clock.slept[0])
}

func TestBeforeCall_ResetsAfterQuietMinute(t *testing.T) {
	clock := newFakeClock()
	l := New(Config{RequestsPerMinute: 2, TokensPerMinute: 100, BaseInterval: 5 * time.Second}, clock)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, l.BeforeCall(ctx))
		l.Record(80)
	}

	clock.Advance(61 * time.Second)
	require.NoError(t, l.BeforeCall(ctx))

	assert.Empty(t, clock.slept)
	w := l.Snapshot()
	assert.Equal(t, 0, w.Calls)
	assert.Equal(t, 0, w.Tokens)
}

func TestBeforeCall_TokenLimit(t *testing.T) {
	clock := newFakeClock()
	l := New(Config{RequestsPerMinute: 100, TokensPerMinute: 50, BaseInterval: time.Second}, clock)
	ctx := context.Background()

	require.NoError(t, l.BeforeCall(ctx))
	l.Record(60)

	require.NoError(t, l.BeforeCall(ctx))
	require.Len(t, clock.slept, 1)
	assert.Equal(t, time.Second, clock.slept[0])
}

func TestBeforeCall_CancelledWait(t *testing.T) {
	clock := newFakeClock()
	l := New(Config{RequestsPerMinute: 1, BaseInterval: 10 * time.Second}, clock)
	require.NoError(t, l.BeforeCall(context.Background()))
	l.Record(0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.BeforeCall(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, l.Snapshot().Calls)
}
