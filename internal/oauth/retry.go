package oauth

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

// BackoffSchedule yields the wait before retry n (1-based). Attempts beyond
// the schedule reuse the last entry.
type BackoffSchedule []time.Duration

func (s BackoffSchedule) Delay(retry int) time.Duration {
	if len(s) == 0 {
		return time.Second
	}
	if retry > len(s) {
		retry = len(s)
	}
	if retry < 1 {
		retry = 1
	}
	return s[retry-1]
}

// WithRetry runs fn up to maxAttempts times, sleeping per schedule between
// attempts. Only errors accepted by isRetryable consume retry budget; any
// other error returns immediately.
func WithRetry(ctx context.Context, maxAttempts int, schedule BackoffSchedule, isRetryable func(error) bool, fn func(ctx context.Context) error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if isRetryable != nil && !isRetryable(lastErr) {
			return lastErr
		}
		if attempt == maxAttempts {
			break
		}
		timer := time.NewTimer(schedule.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}

// IsTransient reports whether an error looks like a transient transport
// failure worth retrying. Classification goes by error category and text,
// never by the HTTP status of an exchange the provider actively rejected.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"connection refused",
		"connection reset",
		"connection aborted",
		"no such host",
		"network is unreachable",
		"fetch failed",
		"unexpected eof",
		"timeout",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
