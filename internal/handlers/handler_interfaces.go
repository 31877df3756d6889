package handlers

import (
	"context"

	"github.com/ternarybob/scribe/internal/models"
)

// ArticleEnhancer enhances one article by id.
type ArticleEnhancer interface {
	EnhanceArticle(ctx context.Context, id string) (*models.Article, error)
}

// BulkEnhancer enhances every article not yet enhanced.
type BulkEnhancer interface {
	EnhanceAll(ctx context.Context) (*models.EnhancementResult, error)
}

// Acquirer runs one acquisition pass.
type Acquirer interface {
	Acquire(ctx context.Context) (*models.AcquisitionResult, error)
}
