package engine

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/hupe1980/agentlaunch/logging"
)

// retryDelayCap bounds the exponential backoff between attempts.
const retryDelayCap = 30 * time.Second

// retryableError wraps failures worth another attempt: throttling, server
// side 5xx and transport errors. Anything not wrapped aborts immediately.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func retryable(err error) error {
	return &retryableError{err: err}
}

// retryableStatus reports whether an HTTP status signals a transient
// condition.
func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// doWithRetry runs fn up to attempts times, doubling the sleep between
// attempts up to retryDelayCap. Only errors marked retryable trigger another
// attempt; the sleep is cut short when ctx ends. Applied to the credential
// handshake and idempotent reads only; mutating calls (deploy, delete) go out
// exactly once.
func doWithRetry(ctx context.Context, logger logging.Logger, attempts int, initialDelay time.Duration, fn func() error) error {
	if attempts <= 0 {
		attempts = 1
	}
	if initialDelay <= 0 {
		initialDelay = time.Second
	}

	delay := initialDelay

	var err error

	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil {
			return nil
		}

		var rerr *retryableError
		if !errors.As(err, &rerr) {
			return err
		}

		if i == attempts-1 {
			break
		}

		logger.Warn("transient platform error, retrying", "attempt", i+1, "delay", delay.String(), "error", err.Error())

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}

		if delay < retryDelayCap {
			delay *= 2
		}
	}

	return err
}
