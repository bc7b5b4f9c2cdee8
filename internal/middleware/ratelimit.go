package middleware

import (
	"fmt"
	"sync"
	"time"

	"github.com/shonaai/mufaro/internal/config"
	"github.com/sirupsen/logrus"
)

// ModelAPIAction is the limiter key for calls to the generative model API.
const ModelAPIAction = "gemini-api"

// CheckResult is the outcome of one admission check.
type CheckResult struct {
	Allowed    bool
	RetryAfter time.Duration
	Remaining  int
}

// RateLimiter gatekeeps outbound calls per named action.
type RateLimiter interface {
	Check(action string, maxRequests int, window time.Duration) CheckResult
	CheckModelAPI() CheckResult
	Reset(action string)
}

// SlidingWindowLimiter counts calls in a trailing time window. Unlike a
// token bucket it can report the exact moment a slot frees up: the denial
// carries window - (now - oldest call still in the window).
type SlidingWindowLimiter struct {
	mu      sync.Mutex
	entries map[string][]time.Time
	max     int
	window  time.Duration
	logger  *logrus.Logger
	now     func() time.Time
}

// NewRateLimiter creates a sliding-window rate limiter. The preset limits
// from cfg apply to CheckModelAPI; Check takes explicit limits per call.
func NewRateLimiter(cfg *config.RateLimitConfig, logger *logrus.Logger) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		entries: make(map[string][]time.Time),
		max:     cfg.MaxRequests,
		window:  cfg.Window,
		logger:  logger,
		now:     time.Now,
	}
}

// Check prunes timestamps older than the window for action, then either
// denies with the time until the oldest remaining call exits the window,
// or records now and admits. Prune, count and append happen under one
// lock so concurrent callers cannot over-admit.
func (l *SlidingWindowLimiter) Check(action string, maxRequests int, window time.Duration) CheckResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	kept := l.entries[action][:0]
	for _, t := range l.entries[action] {
		if now.Sub(t) < window {
			kept = append(kept, t)
		}
	}
	l.entries[action] = kept

	if len(kept) >= maxRequests {
		oldest := kept[0]
		retryAfter := window - now.Sub(oldest)

		l.logger.WithFields(logrus.Fields{
			"action":      action,
			"retry_after": retryAfter,
		}).Warn("Rate limit exceeded")

		return CheckResult{Allowed: false, RetryAfter: retryAfter, Remaining: 0}
	}

	l.entries[action] = append(kept, now)
	return CheckResult{
		Allowed:   true,
		Remaining: maxRequests - len(l.entries[action]),
	}
}

// CheckModelAPI applies the configured model-API preset, by default 12
// requests per minute to stay under the provider's 15 RPM ceiling.
func (l *SlidingWindowLimiter) CheckModelAPI() CheckResult {
	return l.Check(ModelAPIAction, l.max, l.window)
}

// Reset discards recorded calls for an action
func (l *SlidingWindowLimiter) Reset(action string) {
	l.mu.Lock()
	delete(l.entries, action)
	l.mu.Unlock()
}

// FormatRetryTime renders a wait duration for users: whole seconds when
// under a minute, otherwise whole minutes, both rounded up.
func FormatRetryTime(d time.Duration) string {
	seconds := int((d + time.Second - 1) / time.Second)
	if seconds < 60 {
		return fmt.Sprintf("%d second%s", seconds, plural(seconds))
	}
	minutes := (seconds + 59) / 60
	return fmt.Sprintf("%d minute%s", minutes, plural(minutes))
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
