// -----------------------------------------------------------------------
// Link Extractor - Link discovery and filtering with pattern matching
// -----------------------------------------------------------------------

package crawler

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
)

// LinkFilter selects article links on a listing page
type LinkFilter struct {
	IncludePattern  string   // Resolved path must contain this and have a slug after it
	ExcludePatterns []string // Raw href or resolved URL containing any of these is dropped
	SameHostOnly    bool
}

// LinkExtractor handles link discovery and filtering from HTML content
type LinkExtractor struct {
	filter LinkFilter
	logger arbor.ILogger
}

// NewLinkExtractor creates a new link extractor
func NewLinkExtractor(filter LinkFilter, logger arbor.ILogger) *LinkExtractor {
	return &LinkExtractor{
		filter: filter,
		logger: logger,
	}
}

// ListingPage is the parsed result of one listing page
type ListingPage struct {
	Links []string // Article links in document order, deduplicated, normalized
	Next  string   // Resolved "next page" URL without fragment, empty when absent
}

// ParseListing extracts article links and the next-page link from a listing page
func (le *LinkExtractor) ParseListing(html string, pageURL string, nextSelector string) (*ListingPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML for link extraction: %w", err)
	}

	baseURL, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url %q: %w", pageURL, err)
	}

	page := &ListingPage{}
	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if le.shouldSkipLink(href) || le.isExcluded(href) {
			return
		}

		resolved := le.resolveURL(href, baseURL)
		if resolved == nil || !le.isArticleLink(resolved, baseURL) {
			return
		}

		normalized := NormalizeURL(resolved)
		if le.isExcluded(normalized) || seen[normalized] {
			return
		}
		seen[normalized] = true
		page.Links = append(page.Links, normalized)
	})

	if nextSelector != "" {
		if href, ok := doc.Find(nextSelector).First().Attr("href"); ok && !le.shouldSkipLink(href) {
			if resolved := le.resolveURL(href, baseURL); resolved != nil {
				resolved.Fragment = ""
				resolved.RawFragment = ""
				page.Next = resolved.String()
			}
		}
	}

	le.logger.Debug().
		Str("page_url", pageURL).
		Int("links_found", len(page.Links)).
		Str("next", page.Next).
		Msg("Listing page parsed")

	return page, nil
}

// shouldSkipLink determines if a link should be skipped during extraction
func (le *LinkExtractor) shouldSkipLink(href string) bool {
	href = strings.ToLower(strings.TrimSpace(href))

	if href == "" {
		return true
	}

	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "sms:", "ftp:", "data:", "#"} {
		if strings.HasPrefix(href, prefix) {
			return true
		}
	}

	return false
}

func (le *LinkExtractor) isExcluded(link string) bool {
	for _, pattern := range le.filter.ExcludePatterns {
		if pattern != "" && strings.Contains(link, pattern) {
			return true
		}
	}
	return false
}

// isArticleLink requires the include pattern followed by a non-empty slug
func (le *LinkExtractor) isArticleLink(u *url.URL, base *url.URL) bool {
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if le.filter.SameHostOnly && !strings.EqualFold(u.Hostname(), base.Hostname()) {
		return false
	}
	if le.filter.IncludePattern == "" {
		return true
	}

	idx := strings.Index(u.Path, le.filter.IncludePattern)
	if idx < 0 {
		return false
	}
	slug := strings.Trim(u.Path[idx+len(le.filter.IncludePattern):], "/")
	return slug != ""
}

// resolveURL resolves a potentially relative URL against a base URL
func (le *LinkExtractor) resolveURL(href string, baseURL *url.URL) *url.URL {
	resolvedURL, err := baseURL.Parse(strings.TrimSpace(href))
	if err != nil {
		le.logger.Debug().Err(err).Str("href", href).Msg("Failed to resolve URL")
		return nil
	}
	return resolvedURL
}

// NormalizeURL returns the canonical form used for deduplication:
// lowercase scheme and host, no default port, no fragment, no trailing slash except at root.
func NormalizeURL(u *url.URL) string {
	n := *u
	n.Fragment = ""
	n.RawFragment = ""
	n.Scheme = strings.ToLower(n.Scheme)
	n.Host = strings.ToLower(n.Host)

	if (n.Scheme == "http" && strings.HasSuffix(n.Host, ":80")) ||
		(n.Scheme == "https" && strings.HasSuffix(n.Host, ":443")) {
		n.Host = n.Host[:strings.LastIndex(n.Host, ":")]
	}

	if n.Path == "" {
		n.Path = "/"
	} else if len(n.Path) > 1 {
		n.Path = strings.TrimRight(n.Path, "/")
		if n.Path == "" {
			n.Path = "/"
		}
	}
	n.RawPath = ""

	return n.String()
}

// NormalizeRawURL parses and normalizes a URL string
func NormalizeRawURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return NormalizeURL(u), nil
}
