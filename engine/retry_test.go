package engine

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentlaunch/logging"
)

func TestDoWithRetryStopsOnNonRetryable(t *testing.T) {
	boom := errors.New("bad descriptor")

	calls := 0

	err := doWithRetry(context.Background(), logging.NoOpLogger{}, 5, time.Millisecond, func() error {
		calls++
		return boom
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestDoWithRetryExhaustsAttempts(t *testing.T) {
	calls := 0

	err := doWithRetry(context.Background(), logging.NoOpLogger{}, 3, time.Millisecond, func() error {
		calls++
		return retryable(errors.New("connection reset"))
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestDoWithRetryRecovers(t *testing.T) {
	calls := 0

	err := doWithRetry(context.Background(), logging.NoOpLogger{}, 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return retryable(errors.New("try again"))
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoWithRetryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	calls := 0

	err := doWithRetry(ctx, logging.NoOpLogger{}, 10, time.Hour, func() error {
		calls++
		return retryable(errors.New("slow platform"))
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDoWithRetryTreatsZeroAttemptsAsOne(t *testing.T) {
	calls := 0

	err := doWithRetry(context.Background(), logging.NoOpLogger{}, 0, time.Millisecond, func() error {
		calls++
		return retryable(errors.New("transient"))
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryableStatus(t *testing.T) {
	assert.True(t, retryableStatus(http.StatusTooManyRequests))
	assert.True(t, retryableStatus(http.StatusInternalServerError))
	assert.True(t, retryableStatus(http.StatusServiceUnavailable))

	assert.False(t, retryableStatus(http.StatusBadRequest))
	assert.False(t, retryableStatus(http.StatusUnauthorized))
	assert.False(t, retryableStatus(http.StatusNotFound))
	assert.False(t, retryableStatus(http.StatusGone))
}

func TestRetryableErrorUnwraps(t *testing.T) {
	inner := &httpError{Status: http.StatusServiceUnavailable}

	err := responseError(http.StatusServiceUnavailable, nil)

	var herr *httpError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, inner.Status, herr.Status)
}
