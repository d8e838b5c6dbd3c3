package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desiyatra/bargainer/internal/service"
)

func fastRetryOptions() service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestWithRetry_SucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return &RetryableError{Err: errors.New("transient"), Retryable: true}
		}
		return nil
	}, fastRetryOptions())

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithRetry_NonRetryableStopsImmediately(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), func() error {
		attempts++
		return &RetryableError{Err: errors.New("permanent"), Retryable: false}
	}, fastRetryOptions())

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestWithRetry_ExhaustsAttempts(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), func() error {
		attempts++
		return &RetryableError{Err: errors.New("always failing"), Retryable: true}
	}, fastRetryOptions())

	require.ErrorIs(t, err, ErrMaxRetries)
	assert.Equal(t, 3, attempts)
}

func TestWithRetry_RespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	err := WithRetry(ctx, func() error {
		attempts++
		cancel()
		return &RetryableError{Err: errors.New("transient"), Retryable: true}
	}, fastRetryOptions())

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "rate limit", err: ErrRateLimit, want: true},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: true},
		{name: "retryable wrapper", err: &RetryableError{Err: errors.New("x"), Retryable: true}, want: true},
		{name: "non-retryable wrapper", err: &RetryableError{Err: errors.New("x"), Retryable: false}, want: false},
		{name: "plain error", err: errors.New("x"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestMissingContextError(t *testing.T) {
	err := NewMissingContextError("market rate", "party size")

	assert.ErrorIs(t, err, ErrMissingContext)
	assert.Contains(t, err.Error(), "market rate")
	assert.Contains(t, err.Error(), "party size")

	var missingErr *MissingContextError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, []string{"market rate", "party size"}, missingErr.Fields)
}
