package crawler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribe/internal/common"
	"github.com/ternarybob/scribe/internal/interfaces"
)

// LinkCrawler walks a paginated listing and collects article URLs.
// Each Crawl starts fresh; no crawl state is persisted.
type LinkCrawler struct {
	fetcher      interfaces.PageFetcher
	extractor    *LinkExtractor
	nextSelector string
	maxPages     int
	logger       arbor.ILogger
}

// NewLinkCrawler creates a link crawler from crawler config
func NewLinkCrawler(fetcher interfaces.PageFetcher, config common.CrawlerConfig, logger arbor.ILogger) *LinkCrawler {
	maxPages := config.MaxPages
	if maxPages <= 0 {
		maxPages = common.DefaultMaxPages
	}

	return &LinkCrawler{
		fetcher: fetcher,
		extractor: NewLinkExtractor(LinkFilter{
			IncludePattern:  config.IncludePattern,
			ExcludePatterns: config.ExcludePatterns,
			SameHostOnly:    true,
		}, logger),
		nextSelector: config.NextSelector,
		maxPages:     maxPages,
		logger:       logger,
	}
}

// Crawl returns discovered article URLs in first-seen order.
// A failure on the seed page is returned; a failure on a later page ends the
// crawl early with the links collected so far.
func (lc *LinkCrawler) Crawl(ctx context.Context, seedURL string) ([]string, error) {
	start := time.Now()

	current := strings.TrimSpace(seedURL)
	if current == "" {
		return nil, common.Errorf(common.ErrValidation, "crawl", "seed url is required")
	}
	if _, err := NormalizeRawURL(current); err != nil {
		return nil, common.NewError(common.ErrValidation, "crawl", fmt.Errorf("invalid seed url %q: %w", seedURL, err))
	}

	links := []string{}
	seen := make(map[string]bool)
	visited := make(map[string]bool)
	pages := 0
	truncated := false

	for current != "" && pages < lc.maxPages {
		if err := ctx.Err(); err != nil {
			return links, err
		}

		key, _ := NormalizeRawURL(current)
		visited[key] = true
		pages++

		html, err := lc.fetcher.Fetch(ctx, current)
		if err != nil {
			if pages == 1 {
				return nil, err
			}
			lc.logger.Warn().Err(err).Str("page_url", current).Int("page", pages).Msg("Listing page fetch failed, ending crawl")
			break
		}

		page, err := lc.extractor.ParseListing(html, current, lc.nextSelector)
		if err != nil {
			if pages == 1 {
				return nil, common.NewError(common.ErrParse, "crawl "+current, err)
			}
			lc.logger.Warn().Err(err).Str("page_url", current).Msg("Listing page parse failed, ending crawl")
			break
		}

		added := 0
		for _, link := range page.Links {
			if seen[link] || visited[link] {
				continue
			}
			seen[link] = true
			links = append(links, link)
			added++
		}

		lc.logger.Debug().
			Str("page_url", current).
			Int("page", pages).
			Int("new_links", added).
			Msg("Listing page crawled")

		if page.Next == "" {
			break
		}
		if nextKey, err := NormalizeRawURL(page.Next); err != nil || visited[nextKey] {
			break
		}
		current = page.Next
		truncated = pages >= lc.maxPages
	}

	if truncated {
		lc.logger.Warn().Int("max_pages", lc.maxPages).Msg("Crawl stopped at page bound")
	}

	lc.logger.Info().
		Str("seed_url", seedURL).
		Int("pages", pages).
		Int("links", len(links)).
		Dur("duration", time.Since(start)).
		Msg("Link crawl complete")

	return links, nil
}

// SelectLast returns the trailing n entries of links (the oldest posts on a newest-first listing)
func SelectLast(links []string, n int) []string {
	if n <= 0 || n >= len(links) {
		return links
	}
	return links[len(links)-n:]
}
