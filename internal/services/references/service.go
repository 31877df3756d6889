package references

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribe/internal/common"
	"github.com/ternarybob/scribe/internal/interfaces"
	"github.com/ternarybob/scribe/internal/models"
)

// Service finds reference material for an article: a keyed search, then the
// extracted text of each result page.
type Service struct {
	provider  interfaces.SearchProvider
	fetcher   interfaces.PageFetcher
	extractor interfaces.ContentExtractor
	limit     int
	logger    arbor.ILogger
}

// NewService creates a reference retriever returning at most limit references
func NewService(
	provider interfaces.SearchProvider,
	fetcher interfaces.PageFetcher,
	extractor interfaces.ContentExtractor,
	limit int,
	logger arbor.ILogger,
) *Service {
	if limit <= 0 {
		limit = common.DefaultReferenceLimit
	}
	return &Service{
		provider:  provider,
		fetcher:   fetcher,
		extractor: extractor,
		limit:     limit,
		logger:    logger,
	}
}

// Retrieve searches for query and extracts each result page.
// A failed search is an ErrSearch. A result whose page cannot be fetched or
// extracted is kept with empty Content.
func (s *Service) Retrieve(ctx context.Context, query string) ([]models.Reference, error) {
	start := time.Now()

	results, err := s.provider.Search(ctx, query, s.limit)
	if err != nil {
		if !errors.Is(err, common.ErrSearch) {
			err = common.NewError(common.ErrSearch, s.provider.Name()+" search", err)
		}
		return nil, err
	}
	if len(results) > s.limit {
		results = results[:s.limit]
	}

	references := make([]models.Reference, 0, len(results))
	extracted := 0
	for _, result := range results {
		reference := models.Reference{SearchResult: result}
		content, err := s.fetchContent(ctx, result.URL)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("url", result.URL).
				Msg("Reference content unavailable, keeping search result only")
		} else {
			reference.Content = content
			extracted++
		}
		references = append(references, reference)
	}

	s.logger.Info().
		Str("provider", s.provider.Name()).
		Str("query", query).
		Int("references", len(references)).
		Int("extracted", extracted).
		Dur("duration", time.Since(start)).
		Msg("References retrieved")

	return references, nil
}

func (s *Service) fetchContent(ctx context.Context, url string) (string, error) {
	html, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	content, err := s.extractor.Extract(html, url)
	if err != nil {
		return "", err
	}
	if content == "" {
		return "", common.Errorf(common.ErrParse, "extract "+url, "no readable content")
	}
	return content, nil
}

// URLs returns the reference URLs in order
func URLs(references []models.Reference) []string {
	urls := make([]string, 0, len(references))
	for _, reference := range references {
		urls = append(urls, reference.URL)
	}
	return urls
}
