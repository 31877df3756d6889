package crawler

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
)

// HTTPStatusError is a page response outside 2xx
type HTTPStatusError struct {
	StatusCode int
	URL        string
	RetryAfter time.Duration // From the Retry-After header, when the server sent one
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// transientStatus are responses a blog host may recover from between attempts
var transientStatus = map[int]bool{
	408: true,
	425: true,
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

// isTransient reports whether another request for the same page could succeed.
// Other 4xx responses and cancellation are final.
func isTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return transientStatus[statusErr.StatusCode]
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// parseRetryAfter accepts the delta-seconds form of Retry-After
func parseRetryAfter(value string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// pageRetry spaces repeated requests for one page
type pageRetry struct {
	attempts int
	base     time.Duration
	ceiling  time.Duration
}

// newPageRetry allows attempts requests per page (at least one)
func newPageRetry(attempts int) pageRetry {
	return pageRetry{
		attempts: max(attempts, 1),
		base:     500 * time.Millisecond,
		ceiling:  20 * time.Second,
	}
}

// delay is the wait after failed attempt n (0-based): the base doubled per attempt
// with up to half of it as jitter, raised to the server's Retry-After and capped.
func (r pageRetry) delay(n int, err error) time.Duration {
	wait := r.base << min(n, 10)
	wait = wait/2 + time.Duration(rand.Int64N(int64(wait/2)+1))

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) && statusErr.RetryAfter > wait {
		wait = statusErr.RetryAfter
	}
	return min(wait, r.ceiling)
}

// fetch calls once until it returns a body, fails with a final error, or the attempts run out
func (r pageRetry) fetch(ctx context.Context, logger arbor.ILogger, pageURL string, once func() (string, error)) (string, error) {
	var err error
	for n := 0; n < r.attempts; n++ {
		var body string
		if body, err = once(); err == nil {
			return body, nil
		}
		if !isTransient(err) || n == r.attempts-1 {
			break
		}

		wait := r.delay(n, err)
		logger.Debug().
			Str("url", pageURL).
			Int("attempt", n+1).
			Dur("wait", wait).
			Err(err).
			Msg("Page fetch failed, retrying")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
	}
	return "", err
}
