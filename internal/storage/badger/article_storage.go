package badger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribe/internal/common"
	"github.com/ternarybob/scribe/internal/interfaces"
	"github.com/ternarybob/scribe/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ArticleStorage implements ArticleStorage for Badger
type ArticleStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewArticleStorage creates a new ArticleStorage instance
func NewArticleStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ArticleStorage {
	return &ArticleStorage{
		db:     db,
		logger: logger,
	}
}

func (s *ArticleStorage) FindBySourceURL(ctx context.Context, url string) (*models.Article, error) {
	var articles []models.Article
	if err := s.db.Store().Find(&articles, badgerhold.Where("SourceURL").Eq(url).Limit(1)); err != nil {
		return nil, fmt.Errorf("failed to find article by source url: %w", err)
	}
	if len(articles) == 0 {
		return nil, common.Errorf(common.ErrNotFound, "find by source url", "no article for %s", url)
	}
	return &articles[0], nil
}

func (s *ArticleStorage) FindByID(ctx context.Context, id string) (*models.Article, error) {
	var article models.Article
	if err := s.db.Store().Get(id, &article); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, common.Errorf(common.ErrNotFound, "find by id", "article %s", id)
		}
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return &article, nil
}

func (s *ArticleStorage) ListAll(ctx context.Context) ([]*models.Article, error) {
	var articles []models.Article
	if err := s.db.Store().Find(&articles, nil); err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}

	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].CreatedAt.Before(articles[j].CreatedAt)
	})

	result := make([]*models.Article, len(articles))
	for i := range articles {
		result[i] = &articles[i]
	}
	return result, nil
}

// Insert stores a new article. The SourceURL unique constraint rejects duplicates,
// so a concurrent acquisition can never create two records for one URL.
func (s *ArticleStorage) Insert(ctx context.Context, article *models.Article) (string, error) {
	if article.SourceURL == "" {
		return "", common.Errorf(common.ErrValidation, "insert article", "source url is required")
	}
	if article.ID == "" {
		article.ID = common.NewArticleID()
	}
	now := time.Now()
	if article.CreatedAt.IsZero() {
		article.CreatedAt = now
	}
	article.UpdatedAt = now

	err := s.db.Store().Insert(article.ID, article)
	switch {
	case err == nil:
		s.logger.Debug().
			Str("id", article.ID).
			Str("source_url", article.SourceURL).
			Msg("Article inserted")
		return article.ID, nil
	case errors.Is(err, badgerhold.ErrUniqueExists), errors.Is(err, badgerhold.ErrKeyExists):
		return "", common.Errorf(common.ErrExists, "insert article", "article for %s", article.SourceURL)
	case errors.Is(err, badger.ErrConflict):
		// A concurrent writer won; report exists only if it stored this URL
		if _, findErr := s.FindBySourceURL(ctx, article.SourceURL); findErr == nil {
			return "", common.Errorf(common.ErrExists, "insert article", "article for %s", article.SourceURL)
		}
		return "", fmt.Errorf("failed to insert article: %w", err)
	default:
		return "", fmt.Errorf("failed to insert article: %w", err)
	}
}

func (s *ArticleStorage) Update(ctx context.Context, article *models.Article) error {
	if article.ID == "" {
		return common.Errorf(common.ErrValidation, "update article", "id is required")
	}
	if article.UpdatedAt.IsZero() {
		article.UpdatedAt = time.Now()
	}

	if err := s.db.Store().Update(article.ID, article); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return common.Errorf(common.ErrNotFound, "update article", "article %s", article.ID)
		}
		return fmt.Errorf("failed to update article: %w", err)
	}
	return nil
}

func (s *ArticleStorage) Count(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Article{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return int(count), nil
}
