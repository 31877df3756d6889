package badger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribe/internal/common"
	"github.com/ternarybob/scribe/internal/interfaces"
	"github.com/ternarybob/scribe/internal/models"
)

func newTestStorage(t *testing.T) interfaces.ArticleStorage {
	t.Helper()

	logger := arbor.NewLogger()
	db, err := NewBadgerDB(logger, &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewArticleStorage(db, logger)
}

func TestArticleStorage_InsertAndFind(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	id, err := storage.Insert(ctx, &models.Article{
		Title:     "Caching Strategies",
		Content:   "Body",
		SourceURL: "https://example.com/blogs/caching-strategies/",
	})
	require.NoError(t, err)
	assert.Contains(t, id, "art_")

	byURL, err := storage.FindBySourceURL(ctx, "https://example.com/blogs/caching-strategies/")
	require.NoError(t, err)
	assert.Equal(t, id, byURL.ID)
	assert.Equal(t, "Caching Strategies", byURL.Title)
	assert.False(t, byURL.IsUpdated)
	assert.Nil(t, byURL.EnhancedContent)
	assert.False(t, byURL.CreatedAt.IsZero())

	byID, err := storage.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, byURL.SourceURL, byID.SourceURL)
}

func TestArticleStorage_NotFound(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	_, err := storage.FindByID(ctx, "art_missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNotFound))

	_, err = storage.FindBySourceURL(ctx, "https://example.com/nope")
	assert.True(t, errors.Is(err, common.ErrNotFound))

	err = storage.Update(ctx, &models.Article{ID: "art_missing", SourceURL: "https://example.com/x"})
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestArticleStorage_DuplicateSourceURL(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()
	url := "https://example.com/blogs/dup/"

	_, err := storage.Insert(ctx, &models.Article{Title: "First", Content: "a", SourceURL: url})
	require.NoError(t, err)

	_, err = storage.Insert(ctx, &models.Article{Title: "Second", Content: "b", SourceURL: url})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrExists))

	count, err := storage.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	existing, err := storage.FindBySourceURL(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, "First", existing.Title, "acquisition must never overwrite an existing article")
}

func TestArticleStorage_ConcurrentInsertSameURL(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()
	url := "https://example.com/blogs/race/"

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = storage.Insert(ctx, &models.Article{Title: "Race", Content: "c", SourceURL: url})
		}()
	}
	wg.Wait()

	count, err := storage.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestArticleStorage_UpdateEnhancement(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	id, err := storage.Insert(ctx, &models.Article{Title: "T", Content: "c", SourceURL: "https://example.com/blogs/t/"})
	require.NoError(t, err)

	article, err := storage.FindByID(ctx, id)
	require.NoError(t, err)

	article.ApplyEnhancement("## Introduction\nRewritten", []string{"https://a.example", "https://b.example"}, time.Now())
	require.NoError(t, storage.Update(ctx, article))

	updated, err := storage.FindByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, updated.IsUpdated)
	require.NotNil(t, updated.EnhancedContent)
	assert.Equal(t, "## Introduction\nRewritten", *updated.EnhancedContent)
	require.NotNil(t, updated.References)
	assert.Equal(t, "https://a.example\nhttps://b.example", *updated.References)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, updated.ReferenceList())
	assert.Equal(t, article.CreatedAt.Unix(), updated.CreatedAt.Unix())
}

func TestArticleStorage_ListAllOrderedByCreation(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	for i, slug := range []string{"c", "a", "b"} {
		_, err := storage.Insert(ctx, &models.Article{
			Title:     slug,
			Content:   "body",
			SourceURL: "https://example.com/blogs/" + slug + "/",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	articles, err := storage.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, articles, 3)
	assert.Equal(t, "c", articles[0].Title)
	assert.Equal(t, "a", articles[1].Title)
	assert.Equal(t, "b", articles[2].Title)
}
