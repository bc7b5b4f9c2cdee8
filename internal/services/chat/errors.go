package chat

import (
	"errors"
	"fmt"
	"time"

	"github.com/shonaai/mufaro/internal/middleware"
)

var (
	// ErrSessionExpired means SendMessage was called with no initialized
	// session. The caller should start a new one.
	ErrSessionExpired = errors.New("session expired")

	// ErrTimeout means the model did not start responding within the
	// stream timeout. The in-flight call is abandoned.
	ErrTimeout = errors.New("model request timed out")
)

// RateLimitedError is returned when the limiter denies admission. The wait
// until a slot frees up is a first-class field so callers never have to
// parse it back out of the message.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, try again in %s", middleware.FormatRetryTime(e.RetryAfter))
}
