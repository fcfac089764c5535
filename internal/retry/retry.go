// Package retry provides a reusable exponential-backoff retry primitive.
// Unlike the workflow scheduler's per-task retry, which records failure in a
// status report, Until surfaces exhaustion as a hard error to the caller.
package retry

import (
	"context"
	"time"

	"github.com/vk/flowgridgo/internal/ctxlog"
)

// Until invokes action up to maxRetries times, returning the first
// successful result immediately. After a failed attempt it waits delay, then
// multiplies delay by backoff for the next wait. Once every attempt has
// failed, the most recent error is returned as-is, so callers can match it
// with errors.Is/As.
//
// Context cancellation during a wait aborts early with the context's error.
func Until[T any](ctx context.Context, action func(context.Context) (T, error), maxRetries int, delay time.Duration, backoff float64) (T, error) {
	logger := ctxlog.FromContext(ctx)

	var zero T
	var lastErr error
	currentDelay := delay

	for attempt := 1; attempt <= maxRetries; attempt++ {
		result, err := action(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err
		logger.Warn("Attempt failed.", "attempt", attempt, "of", maxRetries, "error", err)

		if attempt == maxRetries {
			break
		}
		timer := time.NewTimer(currentDelay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		}
		currentDelay = time.Duration(float64(currentDelay) * backoff)
	}
	return zero, lastErr
}
