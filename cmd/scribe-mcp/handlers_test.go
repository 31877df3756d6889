package main

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribe/internal/common"
	"github.com/ternarybob/scribe/internal/interfaces"
	"github.com/ternarybob/scribe/internal/models"
	"github.com/ternarybob/scribe/internal/services/status"
	"github.com/ternarybob/scribe/internal/storage/badger"
)

type stubEnhancer struct {
	article *models.Article
	err     error
}

func (s *stubEnhancer) EnhanceArticle(ctx context.Context, id string) (*models.Article, error) {
	return s.article, s.err
}

func newArticles(t *testing.T) interfaces.ArticleStorage {
	t.Helper()
	manager, err := badger.NewInMemoryManager(arbor.NewLogger())
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })
	return manager.ArticleStorage()
}

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) *mcp.CallToolResult {
	t.Helper()
	request := mcp.CallToolRequest{}
	request.Params.Arguments = args
	result, err := handler(context.Background(), request)
	require.NoError(t, err)
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestListArticles(t *testing.T) {
	articles := newArticles(t)
	ctx := context.Background()
	pending := &models.Article{SourceURL: "https://example.com/blogs/a", Title: "Pending One"}
	done := &models.Article{SourceURL: "https://example.com/blogs/b", Title: "Done One"}
	_, err := articles.Insert(ctx, pending)
	require.NoError(t, err)
	_, err = articles.Insert(ctx, done)
	require.NoError(t, err)
	done.IsUpdated = true
	require.NoError(t, articles.Update(ctx, done))

	handler := handleListArticles(articles, arbor.NewLogger())

	all := resultText(t, callTool(t, handler, nil))
	assert.Contains(t, all, "Articles (2)")

	onlyPending := resultText(t, callTool(t, handler, map[string]any{"pending_only": true}))
	assert.Contains(t, onlyPending, "Pending One")
	assert.NotContains(t, onlyPending, "Done One")
}

func TestGetArticle(t *testing.T) {
	articles := newArticles(t)
	article := &models.Article{SourceURL: "https://example.com/blogs/a", Title: "Caching", Content: "Original body."}
	_, err := articles.Insert(context.Background(), article)
	require.NoError(t, err)

	handler := handleGetArticle(articles, arbor.NewLogger())

	result := callTool(t, handler, map[string]any{"article_id": article.ID})
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Original body.")

	missing := callTool(t, handler, map[string]any{"article_id": "art_missing"})
	assert.True(t, missing.IsError)

	noID := callTool(t, handler, nil)
	assert.True(t, noID.IsError)
}

func TestEnhanceArticle(t *testing.T) {
	enhanced := "## Introduction\n\nRewritten body."
	handler := handleEnhanceArticle(&stubEnhancer{article: &models.Article{
		ID: "art_1", Title: "Caching", IsUpdated: true, EnhancedContent: &enhanced,
	}}, arbor.NewLogger())

	result := callTool(t, handler, map[string]any{"article_id": "art_1"})
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Rewritten body.")

	failing := handleEnhanceArticle(&stubEnhancer{
		err: common.Errorf(common.ErrValidation, "generate", "generated content too short"),
	}, arbor.NewLogger())
	result = callTool(t, failing, map[string]any{"article_id": "art_1"})
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "validation")
}

func TestPipelineStatus(t *testing.T) {
	logger := arbor.NewLogger()
	runState := status.NewService(nil, logger)
	require.True(t, runState.TryBegin(models.RunEnhancing))

	handler := handlePipelineStatus(runState, newArticles(t), logger)
	text := resultText(t, callTool(t, handler, nil))

	assert.Contains(t, text, "**State:** enhancing")
	assert.Contains(t, text, "**Articles:** 0")
}
