package middleware

import (
	"io"
	"testing"
	"time"

	"github.com/shonaai/mufaro/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestLimiter(t *testing.T) (*SlidingWindowLimiter, *fakeClock) {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	limiter := NewRateLimiter(&config.RateLimitConfig{
		MaxRequests: 12,
		Window:      time.Minute,
	}, log)

	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	limiter.now = clock.Now
	return limiter, clock
}

func TestCheckFirstCallAlwaysAllowed(t *testing.T) {
	limiter, _ := newTestLimiter(t)

	res := limiter.Check("any-action", 1, time.Minute)
	require.True(t, res.Allowed)
	assert.Equal(t, time.Duration(0), res.RetryAfter)
	assert.Equal(t, 0, res.Remaining)
}

func TestCheckDeniesOverLimit(t *testing.T) {
	limiter, clock := newTestLimiter(t)

	res := limiter.Check("action", 3, time.Minute)
	require.True(t, res.Allowed)
	assert.Equal(t, 2, res.Remaining)

	clock.Advance(10 * time.Second)
	require.True(t, limiter.Check("action", 3, time.Minute).Allowed)
	clock.Advance(10 * time.Second)
	require.True(t, limiter.Check("action", 3, time.Minute).Allowed)

	clock.Advance(10 * time.Second)
	res = limiter.Check("action", 3, time.Minute)
	require.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	// Oldest call was 30s ago, so the slot frees in window - 30s
	assert.Equal(t, 30*time.Second, res.RetryAfter)
}

func TestCheckAllowsAfterRetryAfterElapses(t *testing.T) {
	limiter, clock := newTestLimiter(t)

	require.True(t, limiter.Check("action", 1, time.Minute).Allowed)

	clock.Advance(20 * time.Second)
	res := limiter.Check("action", 1, time.Minute)
	require.False(t, res.Allowed)
	require.Equal(t, 40*time.Second, res.RetryAfter)

	clock.Advance(res.RetryAfter)
	assert.True(t, limiter.Check("action", 1, time.Minute).Allowed)
}

func TestCheckNeverOverAdmitsWithinWindow(t *testing.T) {
	limiter, clock := newTestLimiter(t)

	allowed := 0
	for i := 0; i < 40; i++ {
		if limiter.Check("burst", 5, time.Minute).Allowed {
			allowed++
		}
		clock.Advance(time.Second)
	}
	// 40s elapsed, nothing has left the 60s window yet
	assert.Equal(t, 5, allowed)
}

func TestCheckActionsAreIsolated(t *testing.T) {
	limiter, _ := newTestLimiter(t)

	require.True(t, limiter.Check("a", 1, time.Minute).Allowed)
	require.False(t, limiter.Check("a", 1, time.Minute).Allowed)
	assert.True(t, limiter.Check("b", 1, time.Minute).Allowed)

	limiter.Reset("a")
	assert.True(t, limiter.Check("a", 1, time.Minute).Allowed)
}

func TestCheckModelAPIPreset(t *testing.T) {
	limiter, clock := newTestLimiter(t)

	// 12 calls within one second all pass
	for i := 0; i < 12; i++ {
		require.True(t, limiter.CheckModelAPI().Allowed, "call %d", i+1)
		clock.Advance(83 * time.Millisecond)
	}

	// the 13th inside the same window is denied
	res := limiter.CheckModelAPI()
	require.False(t, res.Allowed)

	// a full window after the first call, a slot has freed up
	clock.Advance(time.Minute)
	assert.True(t, limiter.CheckModelAPI().Allowed)
}

func TestFormatRetryTime(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{900 * time.Millisecond, "1 second"},
		{time.Second, "1 second"},
		{1500 * time.Millisecond, "2 seconds"},
		{45 * time.Second, "45 seconds"},
		{60 * time.Second, "1 minute"},
		{61 * time.Second, "2 minutes"},
		{3 * time.Minute, "3 minutes"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatRetryTime(tt.d), "duration %s", tt.d)
	}
}
