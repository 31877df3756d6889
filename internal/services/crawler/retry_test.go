package crawler

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"too many requests", &HTTPStatusError{StatusCode: 429}, true},
		{"service unavailable", &HTTPStatusError{StatusCode: 503}, true},
		{"not found", &HTTPStatusError{StatusCode: 404}, false},
		{"forbidden", &HTTPStatusError{StatusCode: 403}, false},
		{"wrapped status", fmt.Errorf("visit: %w", &HTTPStatusError{StatusCode: 502}), true},
		{"connection refused", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, true},
		{"deadline", context.DeadlineExceeded, true},
		{"cancelled", context.Canceled, false},
		{"other", errors.New("unsupported protocol scheme"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isTransient(tt.err))
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 3*time.Second, parseRetryAfter("3"))
	assert.Zero(t, parseRetryAfter(""))
	assert.Zero(t, parseRetryAfter("Wed, 21 Oct 2026 07:28:00 GMT"))
	assert.Zero(t, parseRetryAfter("-1"))
}

func TestPageRetry_Delay(t *testing.T) {
	r := newPageRetry(3)

	first := r.delay(0, errors.New("reset"))
	assert.GreaterOrEqual(t, first, r.base/2)
	assert.LessOrEqual(t, first, r.base)

	assert.LessOrEqual(t, r.delay(20, errors.New("reset")), r.ceiling)

	withHeader := r.delay(0, &HTTPStatusError{StatusCode: 429, RetryAfter: 5 * time.Second})
	assert.Equal(t, 5*time.Second, withHeader)

	capped := r.delay(0, &HTTPStatusError{StatusCode: 503, RetryAfter: time.Hour})
	assert.Equal(t, r.ceiling, capped)
}

func TestPageRetry_StopsOnFinalError(t *testing.T) {
	r := newPageRetry(5)
	calls := 0

	_, err := r.fetch(context.Background(), arbor.NewLogger(), "https://example.com/x", func() (string, error) {
		calls++
		return "", &HTTPStatusError{StatusCode: 410}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestPageRetry_ExhaustsAttempts(t *testing.T) {
	r := pageRetry{attempts: 3, base: time.Millisecond, ceiling: time.Millisecond}
	calls := 0

	_, err := r.fetch(context.Background(), arbor.NewLogger(), "https://example.com/x", func() (string, error) {
		calls++
		return "", &HTTPStatusError{StatusCode: 500}
	})

	var statusErr *HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, 500, statusErr.StatusCode)
	assert.Equal(t, 3, calls)
}

func TestPageRetry_CancelledWhileWaiting(t *testing.T) {
	r := pageRetry{attempts: 3, base: time.Minute, ceiling: time.Minute}
	ctx, cancel := context.WithCancel(context.Background())

	_, err := r.fetch(ctx, arbor.NewLogger(), "https://example.com/x", func() (string, error) {
		cancel()
		return "", &HTTPStatusError{StatusCode: 503}
	})
	assert.ErrorIs(t, err, context.Canceled)
}
