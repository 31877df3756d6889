// Package enhancer rewrites stored articles using search references and an LLM.
package enhancer

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribe/internal/common"
	"github.com/ternarybob/scribe/internal/interfaces"
	"github.com/ternarybob/scribe/internal/models"
	"github.com/ternarybob/scribe/internal/services/references"
	"github.com/ternarybob/scribe/internal/worker"
)

// ReferenceRetriever finds reference material for a query
type ReferenceRetriever interface {
	Retrieve(ctx context.Context, query string) ([]models.Reference, error)
}

// ContentGenerator rewrites an article from its original text and up to two references
type ContentGenerator interface {
	Generate(ctx context.Context, original, ref1, ref2 string) (string, error)
}

// Service orchestrates single and bulk enhancement runs
type Service struct {
	config    common.EnhancementConfig
	articles  interfaces.ArticleStorage
	retriever ReferenceRetriever
	generator ContentGenerator
	runState  interfaces.RunStateService
	events    interfaces.EventService
	logger    arbor.ILogger
	now       func() time.Time
}

// NewService creates the enhancement orchestrator. events may be nil.
func NewService(
	config common.EnhancementConfig,
	articles interfaces.ArticleStorage,
	retriever ReferenceRetriever,
	generator ContentGenerator,
	runState interfaces.RunStateService,
	events interfaces.EventService,
	logger arbor.ILogger,
) *Service {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	return &Service{
		config:    config,
		articles:  articles,
		retriever: retriever,
		generator: generator,
		runState:  runState,
		events:    events,
		logger:    logger,
		now:       time.Now,
	}
}

// EnhanceArticle enhances one article regardless of its IsUpdated flag.
// Returns ErrNotFound when no article has id. Nothing is written unless generation succeeds.
func (s *Service) EnhanceArticle(ctx context.Context, id string) (*models.Article, error) {
	article, err := s.articles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.enhance(ctx, article)
	if err != nil {
		s.publishFailure(ctx, article, err)
		return nil, err
	}
	return updated, nil
}

// EnhanceAll enhances every article not yet enhanced. Per-article failures are
// counted and logged; the run itself only fails when articles cannot be listed,
// another run holds the gate, or ctx ends.
func (s *Service) EnhanceAll(ctx context.Context) (result *models.EnhancementResult, err error) {
	if !s.runState.TryBegin(models.RunEnhancing) {
		return nil, common.Errorf(common.ErrBusy, "enhance", "a pipeline run is already in progress")
	}
	defer func() { s.runState.End(err) }()

	start := s.now()
	articles, err := s.articles.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	result = &models.EnhancementResult{Total: len(articles)}
	var enhanced atomic.Int32

	pool := worker.NewPool(ctx, s.config.Concurrency, s.logger)
	pool.Start()

	for _, article := range articles {
		if article.IsUpdated {
			result.Skipped++
			continue
		}

		submitErr := pool.Submit(func(jobCtx context.Context) error {
			if _, enhanceErr := s.enhance(jobCtx, article); enhanceErr != nil {
				s.logger.Warn().
					Str("article_id", article.ID).
					Str("title", article.Title).
					Str("kind", common.KindOf(enhanceErr)).
					Err(enhanceErr).
					Msg("Article enhancement failed")
				s.publishFailure(jobCtx, article, enhanceErr)
				return enhanceErr
			}
			enhanced.Add(1)
			return nil
		})
		if submitErr != nil {
			break
		}
	}

	pool.Wait()
	result.Enhanced = int(enhanced.Load())
	result.Failed = len(pool.Errors())

	s.logger.Info().
		Int("total", result.Total).
		Int("skipped", result.Skipped).
		Int("enhanced", result.Enhanced).
		Int("failed", result.Failed).
		Dur("duration", s.now().Sub(start)).
		Msg("Bulk enhancement complete")

	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, ctxErr
	}
	return result, nil
}

// enhance runs retrieval, generation and the single persisting update for one article
func (s *Service) enhance(ctx context.Context, article *models.Article) (*models.Article, error) {
	refs, err := s.retriever.Retrieve(ctx, article.Title)
	if err != nil {
		if !s.config.ContinueOnSearchError || ctx.Err() != nil {
			return nil, err
		}
		s.logger.Warn().
			Str("article_id", article.ID).
			Err(err).
			Msg("Reference search failed, continuing without references")
		refs = nil
	}

	var ref1, ref2 string
	if len(refs) > 0 {
		ref1 = refs[0].Content
	}
	if len(refs) > 1 {
		ref2 = refs[1].Content
	}

	enhanced, err := s.generator.Generate(ctx, article.Content, ref1, ref2)
	if err != nil {
		return nil, err
	}

	updated := *article
	updated.ApplyEnhancement(enhanced, references.URLs(refs), s.now())
	if err := s.articles.Update(ctx, &updated); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("article_id", updated.ID).
		Str("title", updated.Title).
		Int("references", len(refs)).
		Msg("Article enhanced")

	s.publish(ctx, interfaces.EventArticleEnhanced, map[string]interface{}{
		"article_id": updated.ID,
		"title":      updated.Title,
		"references": updated.ReferenceList(),
	})

	return &updated, nil
}

func (s *Service) publishFailure(ctx context.Context, article *models.Article, err error) {
	s.publish(ctx, interfaces.EventEnhancementFailed, map[string]interface{}{
		"article_id": article.ID,
		"title":      article.Title,
		"kind":       common.KindOf(err),
		"error":      err.Error(),
	})
}

func (s *Service) publish(ctx context.Context, eventType interfaces.EventType, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, interfaces.Event{Type: eventType, Payload: payload}); err != nil {
		s.logger.Warn().Str("event", string(eventType)).Err(err).Msg("Failed to publish event")
	}
}
