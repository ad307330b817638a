package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Memory is a process-local sliding window limiter. Counters are not shared
// across instances; use Redis when the service runs behind a load balancer.
type Memory struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	nowFunc func() time.Time
}

// NewMemory returns an empty in-process limiter.
func NewMemory() *Memory {
	return &Memory{
		windows: map[string][]time.Time{},
		nowFunc: time.Now,
	}
}

// Check drops stale timestamps for the key, then admits the request if the
// window still has room.
func (m *Memory) Check(_ context.Context, namespace, key string, limit Limit) Result {
	now := m.nowFunc()
	k := scopedKey(namespace, key)

	m.mu.Lock()
	defer m.mu.Unlock()

	entries := prune(m.windows[k], now.Add(-limit.Window))

	if len(entries) >= limit.MaxRequests {
		m.windows[k] = entries
		if len(entries) == 0 {
			// MaxRequests <= 0 admits nothing; there is no oldest entry to wait on.
			return Result{Allowed: false, RetryAfterSeconds: retryAfter(now, now, limit.Window)}
		}
		return Result{
			Allowed:           false,
			Remaining:         0,
			RetryAfterSeconds: retryAfter(entries[0], now, limit.Window),
		}
	}

	entries = append(entries, now)
	m.windows[k] = entries
	return Result{Allowed: true, Remaining: limit.MaxRequests - len(entries)}
}

// Sweep removes keys whose newest request is older than maxAge. Long-running
// processes call it periodically so one-off client keys do not accumulate.
func (m *Memory) Sweep(maxAge time.Duration) int {
	threshold := m.nowFunc().Add(-maxAge)
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for k, entries := range m.windows {
		if len(entries) == 0 || !entries[len(entries)-1].After(threshold) {
			delete(m.windows, k)
			removed++
		}
	}
	return removed
}

// prune drops timestamps at or before threshold. Entries are appended in
// time order, so stale ones are always a prefix.
func prune(entries []time.Time, threshold time.Time) []time.Time {
	start := 0
	for start < len(entries) && !entries[start].After(threshold) {
		start++
	}
	if start == 0 {
		return entries
	}
	return append(entries[:0:0], entries[start:]...)
}
