package interfaces

import (
	"context"

	"github.com/ternarybob/scribe/internal/models"
)

// SearchProvider performs a keyed web search
type SearchProvider interface {
	// Search returns at most limit organic results for query, best first
	Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error)

	// Name identifies the provider in logs
	Name() string
}

// PageFetcher retrieves raw HTML for a URL
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// ContentExtractor turns an HTML document into clean text
type ContentExtractor interface {
	Extract(html string, originURL string) (string, error)
}
