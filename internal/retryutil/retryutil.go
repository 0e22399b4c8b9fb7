// Package retryutil holds the exponential-backoff retry loop that the
// Enrich stage uses around its reverse-geocode calls and object-store
// reads, extracted once instead of re-written per call site.
package retryutil

import (
	"context"
	"time"
)

// Do calls fn up to attempts times. shouldRetry decides whether a non-nil
// error is worth retrying; the first attempt for which shouldRetry returns
// false (including success) stops the loop immediately. Between attempts it
// sleeps base * 2^i, doubling each time, honoring ctx cancellation.
func Do(ctx context.Context, attempts int, base time.Duration, shouldRetry func(error) bool, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < attempts; i++ {
		lastErr = fn(i)
		if lastErr == nil {
			return nil
		}
		if shouldRetry != nil && !shouldRetry(lastErr) {
			return lastErr
		}
		if i == attempts-1 {
			break
		}
		delay := base * (1 << uint(i))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return lastErr
}
