package integration

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnauthorized signals an upstream 401/403-equivalent. Adapters react
// by invalidating the session and retrying exactly once.
var ErrUnauthorized = errors.New("integration: unauthorized")

// RateLimitError signals upstream throttling with a suggested backoff.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("integration: rate limited, retry after %s", e.RetryAfter)
}
