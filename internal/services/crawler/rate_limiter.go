package crawler

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter enforces a minimum delay between requests to the same host
type RateLimiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.Mutex
	defaultDelay time.Duration
}

// NewRateLimiter creates a new rate limiter with the specified default delay.
// A zero delay disables limiting.
func NewRateLimiter(defaultDelay time.Duration) *RateLimiter {
	return &RateLimiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultDelay: defaultDelay,
	}
}

// Wait blocks until the rate limit for the URL's host is satisfied (with context support)
func (rl *RateLimiter) Wait(ctx context.Context, rawURL string) error {
	if rl == nil || rl.defaultDelay <= 0 {
		return nil
	}

	domain := extractDomain(rawURL)
	if domain == "" {
		return nil
	}

	return rl.limiterFor(domain).Wait(ctx)
}

func (rl *RateLimiter) limiterFor(domain string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[domain]
	if !exists {
		limiter = rate.NewLimiter(rate.Every(rl.defaultDelay), 1)
		rl.limiters[domain] = limiter
	}
	return limiter
}

// extractDomain parses the host from a URL
func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
