package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/use-agent/scout/models"
)

// RetryPolicy bounds retries of transient request failures.
type RetryPolicy struct {
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int

	// BaseDelay seeds the exponential backoff (doubled each attempt).
	BaseDelay time.Duration

	// MaxDelay caps a single backoff interval.
	MaxDelay time.Duration
}

// statusError marks a retryable HTTP status so backoff distinguishes it
// from permanent failures.
type statusError struct {
	status int
	url    string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("fetch: HTTP %d for %s", e.status, e.url)
}

// Transient reports whether an error is worth retrying: timeouts,
// connection failures, and retryable HTTP statuses (5xx, 429).
func Transient(err error) bool {
	if err == nil {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}

// DoWithRetry issues the request through the client, retrying transient
// failures (timeout, connection error, 5xx, 429) with exponential backoff.
// Non-retryable 4xx responses are returned as-is without error so the call
// site can decide; retryable statuses that persist surface as an error.
func DoWithRetry(ctx context.Context, client Client, req *Request, policy RetryPolicy) (*Response, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = policy.BaseDelay
	if bo.InitialInterval == 0 {
		bo.InitialInterval = 500 * time.Millisecond
	}
	bo.Multiplier = 2
	bo.MaxInterval = policy.MaxDelay
	if bo.MaxInterval == 0 {
		bo.MaxInterval = 30 * time.Second
	}
	bo.RandomizationFactor = 0

	var resp *Response
	attempt := 0

	operation := func() error {
		attempt++
		r, err := client.Do(ctx, req)
		if err != nil {
			if Transient(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		if models.RetryableStatus(r.StatusCode) {
			return &statusError{status: r.StatusCode, url: req.URL}
		}
		resp = r
		return nil
	}

	notify := func(err error, wait time.Duration) {
		slog.Debug("retrying request",
			"url", req.URL, "attempt", attempt, "wait", wait, "error", err)
	}

	wrapped := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(policy.MaxRetries)), ctx)
	if err := backoff.RetryNotify(operation, wrapped, notify); err != nil {
		var se *statusError
		if errors.As(err, &se) {
			code := models.ErrCodeTimeout
			if se.status == 429 {
				code = models.ErrCodeRateLimited
			}
			return nil, models.NewError(code, "retries exhausted", err)
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, models.NewError(models.ErrCodeTimeout, "request deadline exceeded", err)
		}
		return nil, models.NewError(models.ErrCodeNavigation, "request failed", err)
	}
	return resp, nil
}
