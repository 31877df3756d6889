package crawler

import (
	"context"
	"errors"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribe/internal/common"
	"github.com/ternarybob/scribe/internal/interfaces"
)

const maxPageBodySize = 10 * 1024 * 1024 // 10MB

// Fetcher retrieves raw HTML with a browser identity, per-host throttling and retry
type Fetcher struct {
	userAgent string
	timeout   time.Duration
	limiter   *RateLimiter
	retry     pageRetry
	logger    arbor.ILogger
}

// NewFetcher creates a colly-backed page fetcher from crawler config
func NewFetcher(config common.CrawlerConfig, logger arbor.ILogger) *Fetcher {
	return &Fetcher{
		userAgent: config.UserAgent,
		timeout:   common.ParseDuration(config.RequestTimeout, 30*time.Second),
		limiter:   NewRateLimiter(common.ParseDuration(config.RequestDelay, 0)),
		retry:     newPageRetry(config.MaxRetries),
		logger:    logger,
	}
}

// newCollector builds a synchronous single-page collector bound to ctx.
// Each fetch gets its own collector so concurrent fetches share no client state.
func (f *Fetcher) newCollector(ctx context.Context) *colly.Collector {
	c := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.UserAgent(f.userAgent),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
		colly.MaxBodySize(maxPageBodySize),
	)
	c.SetRequestTimeout(f.timeout)
	return c
}

// Fetch returns the body of targetURL. Any transport failure or non-2xx status is an ErrFetch.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (string, error) {
	if err := f.limiter.Wait(ctx, targetURL); err != nil {
		return "", common.NewError(common.ErrFetch, "fetch "+targetURL, err)
	}

	start := time.Now()
	body, err := f.retry.fetch(ctx, f.logger, targetURL, func() (string, error) {
		return f.fetchOnce(ctx, targetURL)
	})
	if err != nil {
		f.logger.Warn().
			Err(err).
			Str("url", targetURL).
			Int("status_code", statusCode(err)).
			Msg("Page fetch failed")
		return "", common.NewError(common.ErrFetch, "fetch "+targetURL, err)
	}

	f.logger.Debug().
		Str("url", targetURL).
		Int("bytes", len(body)).
		Dur("duration", time.Since(start)).
		Msg("Page fetched")

	return body, nil
}

// fetchOnce performs a single request
func (f *Fetcher) fetchOnce(ctx context.Context, targetURL string) (string, error) {
	c := f.newCollector(ctx)

	var body string
	var fetchErr error

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		r.Headers.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
	})

	c.OnResponse(func(r *colly.Response) {
		body = string(r.Body)
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode > 0 {
			statusErr := &HTTPStatusError{StatusCode: r.StatusCode, URL: targetURL}
			if r.Headers != nil {
				statusErr.RetryAfter = parseRetryAfter(r.Headers.Get("Retry-After"))
			}
			fetchErr = statusErr
			return
		}
		fetchErr = err
	})

	if err := c.Visit(targetURL); err != nil && fetchErr == nil {
		fetchErr = err
	}
	c.Wait()

	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if fetchErr != nil {
		return "", fetchErr
	}
	return body, nil
}

// statusCode is the response status behind a fetch error, or 0 for transport failures
func statusCode(err error) int {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

var _ interfaces.PageFetcher = (*Fetcher)(nil)
