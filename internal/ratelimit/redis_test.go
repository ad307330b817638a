package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestRedis_FailsOpenWhenUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })

	l := NewRedis(client, "test:")
	res := l.Check(context.Background(), "create", "1.2.3.4", Limit{MaxRequests: 3, Window: time.Second})
	if !res.Allowed {
		t.Fatal("expected fail-open admission when redis is down")
	}
	if res.Remaining != 3 {
		t.Fatalf("expected remaining 3, got %d", res.Remaining)
	}
}

func TestRetryAfter(t *testing.T) {
	now := time.Unix(1000, 0)
	cases := []struct {
		oldest time.Time
		window time.Duration
		want   int
	}{
		{now, time.Minute, 60},
		{now.Add(-59500 * time.Millisecond), time.Minute, 1},
		{now.Add(-2 * time.Minute), time.Minute, 1},
		{now.Add(-10 * time.Second), time.Minute, 50},
	}
	for _, tc := range cases {
		if got := retryAfter(tc.oldest, now, tc.window); got != tc.want {
			t.Errorf("retryAfter(%v): want %d, got %d", tc.oldest, tc.want, got)
		}
	}
}
