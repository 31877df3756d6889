package llm

import (
	"context"
	"errors"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"google.golang.org/genai"
)

// retryHintRegex matches the "Please retry in 45.3s" hint Gemini puts in quota messages
var retryHintRegex = regexp.MustCompile(`(?i)retry in (\d+(?:\.\d+)?)s`)

// failure is what a generation error says about trying again
type failure struct {
	status     int           // HTTP status, 0 when the request never got a response
	retryAfter time.Duration // Provider-suggested wait
	hardQuota  bool          // Quota of zero; waiting cannot help
	transport  bool          // Network or timeout failure
}

// classify reads a generation error, preferring the typed genai error over message text
func classify(err error) failure {
	var f failure

	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		f.status = apiErr.Code
		f.retryAfter = retryInfoDelay(apiErr.Details)
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		f.status = apiErrPtr.Code
		f.retryAfter = retryInfoDelay(apiErrPtr.Details)
	}

	msg := err.Error()
	if f.status == 0 && (strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED")) {
		f.status = 429
	}
	if f.retryAfter == 0 {
		if m := retryHintRegex.FindStringSubmatch(msg); len(m) == 2 {
			if seconds, parseErr := strconv.ParseFloat(m[1], 64); parseErr == nil {
				f.retryAfter = time.Duration(seconds * float64(time.Second))
			}
		}
	}
	f.hardQuota = f.status == 429 && strings.Contains(msg, "limit: 0")

	var netErr net.Error
	f.transport = errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded)
	return f
}

// retryInfoDelay reads google.rpc.RetryInfo.retryDelay ("45s") from error details
func retryInfoDelay(details []map[string]any) time.Duration {
	for _, detail := range details {
		kind, _ := detail["@type"].(string)
		if !strings.HasSuffix(kind, "RetryInfo") {
			continue
		}
		if raw, ok := detail["retryDelay"].(string); ok {
			if d, err := time.ParseDuration(raw); err == nil {
				return d
			}
		}
	}
	return 0
}

// retryable is true for rate limits, server-side failures and transport errors
func (f failure) retryable() bool {
	if f.hardQuota {
		return false
	}
	switch f.status {
	case 429, 500, 502, 503, 504:
		return true
	case 0:
		return f.transport
	}
	return false
}

// generationRetry repeats a generation call while its failures are retryable.
// Gemini's per-minute quota resets within about a minute, hence the long base wait.
type generationRetry struct {
	attempts int
	base     time.Duration
	ceiling  time.Duration
}

func newGenerationRetry() generationRetry {
	return generationRetry{attempts: 4, base: 15 * time.Second, ceiling: 90 * time.Second}
}

// wait is the pause after failed attempt n (0-based): the provider's hint plus a
// small margin when there is one, otherwise the base doubled per attempt; capped.
func (r generationRetry) wait(n int, f failure) time.Duration {
	d := r.base << min(n, 6)
	if f.retryAfter > 0 {
		d = f.retryAfter + 2*time.Second
	}
	return min(d, r.ceiling)
}

// do runs call until it succeeds, fails for good, the attempts run out or ctx ends
func (r generationRetry) do(ctx context.Context, logger arbor.ILogger, operation string, call func() error) error {
	var err error
	for n := 0; n < r.attempts; n++ {
		if err = call(); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}

		f := classify(err)
		if !f.retryable() || n == r.attempts-1 {
			break
		}

		d := r.wait(n, f)
		logger.Warn().
			Str("operation", operation).
			Int("attempt", n+1).
			Int("status", f.status).
			Dur("wait", d).
			Err(err).
			Msg("Generation call failed, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
		}
	}
	return err
}
