package crawler

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribe/internal/common"
	"github.com/ternarybob/scribe/internal/interfaces"
	"github.com/ternarybob/scribe/internal/models"
)

// Service runs the acquisition path: crawl, trailing slice, fetch, extract, gate, insert-if-absent.
// Acquisition never modifies a stored article.
type Service struct {
	config    common.CrawlerConfig
	crawler   *LinkCrawler
	fetcher   interfaces.PageFetcher
	extractor interfaces.ContentExtractor
	articles  interfaces.ArticleStorage
	runState  interfaces.RunStateService
	events    interfaces.EventService
	logger    arbor.ILogger
}

// NewService creates an acquisition service. events may be nil.
func NewService(
	config common.CrawlerConfig,
	fetcher interfaces.PageFetcher,
	extractor interfaces.ContentExtractor,
	articles interfaces.ArticleStorage,
	runState interfaces.RunStateService,
	events interfaces.EventService,
	logger arbor.ILogger,
) *Service {
	if config.MinContentLength <= 0 {
		config.MinContentLength = common.DefaultMinContentLength
	}
	return &Service{
		config:    config,
		crawler:   NewLinkCrawler(fetcher, config, logger),
		fetcher:   fetcher,
		extractor: extractor,
		articles:  articles,
		runState:  runState,
		events:    events,
		logger:    logger,
	}
}

// Acquire runs one acquisition pass behind the run-state gate.
// It returns common.ErrBusy when another run is in progress.
func (s *Service) Acquire(ctx context.Context) (result *models.AcquisitionResult, err error) {
	if !s.runState.TryBegin(models.RunAcquiring) {
		return nil, common.NewError(common.ErrBusy, "acquire", nil)
	}
	defer func() { s.runState.End(err) }()

	return s.acquire(ctx)
}

func (s *Service) acquire(ctx context.Context) (*models.AcquisitionResult, error) {
	start := time.Now()

	links, err := s.crawler.Crawl(ctx, s.config.SeedURL)
	if err != nil {
		return nil, err
	}

	candidates := SelectLast(links, s.config.SelectLast)
	result := &models.AcquisitionResult{
		Discovered: len(links),
		Considered: len(candidates),
	}

	for _, link := range candidates {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		inserted, existed, err := s.acquireOne(ctx, link)
		switch {
		case err != nil:
			result.Rejected++
			s.logger.Warn().
				Err(err).
				Str("url", link).
				Str("kind", common.KindOf(err)).
				Msg("Article skipped")
		case existed:
			result.Existing++
		case inserted != nil:
			result.Inserted++
			s.publish(ctx, inserted)
		}
	}

	s.logger.Info().
		Int("discovered", result.Discovered).
		Int("considered", result.Considered).
		Int("inserted", result.Inserted).
		Int("existing", result.Existing).
		Int("rejected", result.Rejected).
		Dur("duration", time.Since(start)).
		Msg("Acquisition complete")

	return result, nil
}

// acquireOne stores link as a new article unless it already exists
func (s *Service) acquireOne(ctx context.Context, link string) (*models.Article, bool, error) {
	if _, err := s.articles.FindBySourceURL(ctx, link); err == nil {
		s.logger.Debug().Str("url", link).Msg("Article already stored")
		return nil, true, nil
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, false, err
	}

	html, err := s.fetcher.Fetch(ctx, link)
	if err != nil {
		return nil, false, err
	}

	content, err := s.extractor.Extract(html, link)
	if err != nil {
		return nil, false, err
	}

	if n := utf8.RuneCountInString(content); n < s.config.MinContentLength {
		return nil, false, common.Errorf(common.ErrValidation, "acquire "+link,
			"content too short: %d < %d characters", n, s.config.MinContentLength)
	}

	article := &models.Article{
		SourceURL: link,
		Title:     DeriveTitle(html, link),
		Content:   content,
	}

	if _, err := s.articles.Insert(ctx, article); err != nil {
		if errors.Is(err, common.ErrExists) {
			return nil, true, nil
		}
		return nil, false, err
	}

	s.logger.Info().
		Str("article_id", article.ID).
		Str("title", article.Title).
		Int("content_length", len(content)).
		Msg("Article acquired")

	return article, false, nil
}

func (s *Service) publish(ctx context.Context, article *models.Article) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, interfaces.Event{
		Type: interfaces.EventArticleAcquired,
		Payload: map[string]interface{}{
			"article_id": article.ID,
			"title":      article.Title,
			"source_url": article.SourceURL,
		},
	}); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to publish article event")
	}
}
