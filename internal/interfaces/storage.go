package interfaces

import (
	"context"

	"github.com/ternarybob/scribe/internal/models"
)

// ArticleStorage - interface for article persistence
type ArticleStorage interface {
	// FindBySourceURL returns the article for url, or common.ErrNotFound
	FindBySourceURL(ctx context.Context, url string) (*models.Article, error)
	// FindByID returns the article with id, or common.ErrNotFound
	FindByID(ctx context.Context, id string) (*models.Article, error)
	// ListAll returns every article ordered by creation time
	ListAll(ctx context.Context) ([]*models.Article, error)
	// Insert stores a new article and returns its id.
	// A second insert for the same SourceURL returns common.ErrExists.
	Insert(ctx context.Context, article *models.Article) (string, error)
	// Update replaces the stored article in a single write
	Update(ctx context.Context, article *models.Article) error
	Count(ctx context.Context) (int, error)
}

// StorageManager - composite storage interface
type StorageManager interface {
	ArticleStorage() ArticleStorage
	DB() interface{}
	Close() error
}
