// Package ratelimit implements sliding-window admission control keyed by
// (namespace, client identity).
package ratelimit

import (
	"context"
	"time"
)

// Limit is the admission threshold for one namespace.
type Limit struct {
	MaxRequests int
	Window      time.Duration
}

// Result is the outcome of one admission check.
type Result struct {
	Allowed           bool
	Remaining         int
	RetryAfterSeconds int
}

// Limiter admits or rejects a request for key within namespace. A Limiter
// never fails a request because of its own state: unknown keys count as zero
// usage, and implementations backed by a network store fail open.
type Limiter interface {
	Check(ctx context.Context, namespace, key string, limit Limit) Result
}

func scopedKey(namespace, key string) string {
	return namespace + ":" + key
}

// retryAfter returns whole seconds until oldest leaves the window, minimum 1.
func retryAfter(oldest, now time.Time, window time.Duration) int {
	wait := oldest.Add(window).Sub(now)
	secs := int((wait + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}
