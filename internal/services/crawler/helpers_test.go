package crawler

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ternarybob/scribe/internal/common"
)

// fakeFetcher serves canned pages keyed by normalized URL
type fakeFetcher struct {
	mu      sync.Mutex
	pages   map[string]string
	fetched []string
}

func newFakeFetcher(pages map[string]string) *fakeFetcher {
	return &fakeFetcher{pages: pages}
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, url)
	page, ok := f.pages[url]
	if !ok {
		return "", common.Errorf(common.ErrFetch, "fetch "+url, "status 404")
	}
	return page, nil
}

func (f *fakeFetcher) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetched)
}

// listingPage renders a blog listing with article links and an optional next link
func listingPage(links []string, next string) string {
	var b strings.Builder
	b.WriteString("<html><body><nav><a href=\"/\">Home</a><a href=\"/blogs/\">Blog</a></nav><main>")
	for _, link := range links {
		fmt.Fprintf(&b, "<div class=\"entry\"><a href=\"%s\">Read</a><a href=\"%s#comments\">Comments</a></div>", link, link)
	}
	if next != "" {
		fmt.Fprintf(&b, "<a class=\"next page-numbers\" href=\"%s\">Next</a>", next)
	}
	b.WriteString("</main></body></html>")
	return b.String()
}

// articlePage renders an article with boilerplate around a body of n sentences
func articlePage(title string, sentences int) string {
	var body strings.Builder
	for i := 0; i < sentences; i++ {
		fmt.Fprintf(&body, "<p>Sentence %d explains how chatbots help support teams respond faster to customers.</p>\n", i+1)
	}
	heading := ""
	if title != "" {
		heading = "<h1>" + title + "</h1>"
	}
	return `<!DOCTYPE html><html><head><title>Site</title><style>.x{color:red}</style></head><body>
<header><nav><a href="/">Home</a> <a href="/blogs/">Blogs</a></nav></header>
<article>` + heading + `
<div class="entry-content">` + body.String() + `</div>
</article>
<aside class="sidebar">Subscribe to our newsletter for the latest updates and offers!</aside>
<footer>Copyright 2024</footer>
<script>console.log("tracking")</script>
</body></html>`
}
