package redis

import (
	"context"
	"fmt"
	"time"
)

// counter is the slice of the client the limiter needs; tests swap it out.
type counter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, expiration time.Duration) error
}

// CheckoutLimiter caps checkout attempts per member with a fixed-window
// counter. Each window is one minute; the first increment arms the expiry.
type CheckoutLimiter struct {
	counter counter
	limit   int
	window  time.Duration
}

func NewCheckoutLimiter(client *Client, perMinute int) *CheckoutLimiter {
	return &CheckoutLimiter{counter: client, limit: perMinute, window: time.Minute}
}

func (r *CheckoutLimiter) Allow(ctx context.Context, memberID string) (bool, error) {
	key := checkoutKey(memberID)
	count, err := r.counter.Incr(ctx, key)
	if err != nil {
		return false, err
	}

	if count == 1 {
		if err := r.counter.Expire(ctx, key, r.window); err != nil {
			return false, err
		}
	}

	return count <= int64(r.limit), nil
}

func checkoutKey(memberID string) string {
	return fmt.Sprintf("rate_limit:checkout:%s", memberID)
}
