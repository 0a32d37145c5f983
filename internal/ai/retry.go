package ai

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy retries a call on transient upstream failures with exponential
// backoff plus jitter. Permanent failures abort immediately.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	Multiplier float64
	MaxDelay   time.Duration
	Jitter     float64 // fraction of the delay added at random, e.g. 0.5
}

// DefaultRetryPolicy matches the Gemini free-tier behavior we tuned against.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries: 3,
	BaseDelay:  time.Second,
	Multiplier: 2,
	MaxDelay:   30 * time.Second,
	Jitter:     0.5,
}

// Do invokes call up to MaxRetries+1 times. The returned error, if any, is
// always a classified *UpstreamError.
func (p RetryPolicy) Do(ctx context.Context, call func(context.Context) (string, error)) (string, *UpstreamError) {
	var lastErr *UpstreamError

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, p.delay(attempt-1)); err != nil {
				return "", Classify(err)
			}
		}

		text, err := call(ctx)
		if err == nil {
			return text, nil
		}

		lastErr = Classify(err)
		if !lastErr.Transient {
			return "", lastErr
		}
	}

	return "", lastErr
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	d := float64(p.BaseDelay)
	for i := 0; i < attempt; i++ {
		d *= p.Multiplier
	}
	if d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	d += rand.Float64() * p.Jitter * d
	return time.Duration(d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
