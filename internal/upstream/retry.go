package upstream

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gcbaptista/go-hotel-search/internal/errors"
)

// retryWithBackoff runs operation up to maxAttempts times, doubling the delay
// after each failure. Client errors (4xx) and context cancellation stop early.
func retryWithBackoff(ctx context.Context, logger *slog.Logger, maxAttempts int, baseDelay time.Duration, operation func() error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	delay := baseDelay
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				logger.Debug("upstream request succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if attempt == maxAttempts || !shouldRetry(ctx, lastErr) {
			break
		}

		logger.Debug("upstream request failed, will retry", "attempt", attempt, "max_attempts", maxAttempts, "delay", delay, "error", lastErr)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
		delay *= 2
	}
	return lastErr
}

func shouldRetry(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var upstream *errors.UpstreamError
	if stderrors.As(err, &upstream) && upstream.StatusCode != 0 {
		return upstream.StatusCode >= http.StatusInternalServerError
	}
	return errors.IsRetryable(err)
}
