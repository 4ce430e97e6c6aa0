package chaindata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errPermanent = errors.New("permanent")

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestRetry_SucceedsAfterRetryableErrors(t *testing.T) {
	t.Parallel()
	calls := 0
	got, err := Retry(context.Background(), fastRetry(), func() (int, error) {
		calls++
		if calls < 3 {
			return 0, WrapRetryable(errPermanent)
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 3, calls)
}

func TestRetry_StopsOnPermanentError(t *testing.T) {
	t.Parallel()
	calls := 0
	_, err := Retry(context.Background(), fastRetry(), func() (int, error) {
		calls++
		return 0, errPermanent
	})
	require.ErrorIs(t, err, errPermanent)
	assert.Equal(t, 1, calls)
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	t.Parallel()
	calls := 0
	_, err := Retry(context.Background(), fastRetry(), func() (int, error) {
		calls++
		return 0, ErrRateLimited
	})
	require.ErrorIs(t, err, ErrRateLimited)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, calls)
}

func TestRetry_ContextCancelledDuringBackoff(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cfg := RetryConfig{MaxAttempts: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}

	_, err := Retry(ctx, cfg, func() (int, error) {
		cancel()
		return 0, WrapRetryable(errPermanent)
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(errPermanent))
	assert.False(t, IsRetryable(context.Canceled))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
	assert.True(t, IsRetryable(WrapRetryable(errPermanent)))
	assert.NoError(t, WrapRetryable(nil))
}

func TestCalculateDelay(t *testing.T) {
	t.Parallel()
	for attempt := 0; attempt < 6; attempt++ {
		d := calculateDelay(attempt, 100*time.Millisecond, 400*time.Millisecond)
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.Less(t, d, 400*time.Millisecond)
	}
	assert.Equal(t, time.Duration(0), calculateDelay(0, 0, 0))
}

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 3*time.Second, ParseRetryAfter("3"))
	assert.Equal(t, time.Duration(0), ParseRetryAfter(""))
	assert.Equal(t, time.Duration(0), ParseRetryAfter("soon"))
	assert.Equal(t, time.Duration(0), ParseRetryAfter("-1"))
}

func TestRateLimiter(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(1, 2)

	assert.True(t, rl.Allow("multisig"))
	assert.True(t, rl.Allow("multisig"))
	assert.False(t, rl.Allow("multisig"), "burst exhausted")
	assert.True(t, rl.Allow("identity"), "endpoints are limited independently")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.Error(t, rl.Wait(ctx, "multisig"))
}
