package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"google.golang.org/genai"
)

func TestClassify(t *testing.T) {
	t.Run("typed rate limit with retry info", func(t *testing.T) {
		err := fmt.Errorf("Gemini API call failed: %w", genai.APIError{
			Code:    429,
			Status:  "RESOURCE_EXHAUSTED",
			Message: "Quota exceeded",
			Details: []map[string]any{
				{"@type": "type.googleapis.com/google.rpc.RetryInfo", "retryDelay": "41s"},
			},
		})
		f := classify(err)
		assert.Equal(t, 429, f.status)
		assert.Equal(t, 41*time.Second, f.retryAfter)
		assert.True(t, f.retryable())
	})

	t.Run("typed bad request", func(t *testing.T) {
		f := classify(genai.APIError{Code: 400, Status: "INVALID_ARGUMENT", Message: "bad prompt"})
		assert.Equal(t, 400, f.status)
		assert.False(t, f.retryable())
	})

	t.Run("message hint", func(t *testing.T) {
		f := classify(errors.New("Error 429, Message: quota. Please retry in 45.387061394s., Status: RESOURCE_EXHAUSTED"))
		assert.Equal(t, 429, f.status)
		assert.InDelta(t, 45.387, f.retryAfter.Seconds(), 0.001)
	})

	t.Run("hard quota", func(t *testing.T) {
		f := classify(errors.New("Error 429, quota exceeded, limit: 0, model: gemini"))
		assert.True(t, f.hardQuota)
		assert.False(t, f.retryable())
	})

	t.Run("deadline", func(t *testing.T) {
		assert.True(t, classify(context.DeadlineExceeded).retryable())
	})

	t.Run("unknown", func(t *testing.T) {
		assert.False(t, classify(errors.New("invalid argument")).retryable())
	})
}

func TestGenerationRetry_Wait(t *testing.T) {
	r := newGenerationRetry()

	assert.Equal(t, r.base, r.wait(0, failure{status: 503}))
	assert.Equal(t, 2*r.base, r.wait(1, failure{status: 503}))
	assert.Equal(t, r.ceiling, r.wait(5, failure{status: 503}))
	assert.Equal(t, 12*time.Second, r.wait(0, failure{status: 429, retryAfter: 10 * time.Second}))
}

func TestGenerationRetry_Do(t *testing.T) {
	fast := generationRetry{attempts: 3, base: time.Millisecond, ceiling: time.Millisecond}
	logger := arbor.NewLogger()

	t.Run("recovers after rate limit", func(t *testing.T) {
		calls := 0
		err := fast.do(context.Background(), logger, "test", func() error {
			calls++
			if calls < 2 {
				return genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"}
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("client error fails fast", func(t *testing.T) {
		calls := 0
		err := fast.do(context.Background(), logger, "test", func() error {
			calls++
			return genai.APIError{Code: 400, Status: "INVALID_ARGUMENT"}
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after attempts", func(t *testing.T) {
		calls := 0
		err := fast.do(context.Background(), logger, "test", func() error {
			calls++
			return genai.APIError{Code: 503, Status: "UNAVAILABLE"}
		})
		require.Error(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("cancelled context stops waiting", func(t *testing.T) {
		slow := generationRetry{attempts: 3, base: time.Hour, ceiling: time.Hour}
		ctx, cancel := context.WithCancel(context.Background())
		err := slow.do(ctx, logger, "test", func() error {
			cancel()
			return genai.APIError{Code: 503}
		})
		require.Error(t, err)
		assert.Equal(t, 503, classify(err).status)
	})
}
