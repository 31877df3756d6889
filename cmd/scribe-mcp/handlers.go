package main

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribe/internal/common"
	"github.com/ternarybob/scribe/internal/handlers"
	"github.com/ternarybob/scribe/internal/interfaces"
)

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	result := textResult(text)
	result.IsError = true
	return result
}

// handleListArticles implements the list_articles tool
func handleListArticles(articles interfaces.ArticleStorage, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		pendingOnly := request.GetBool("pending_only", false)

		all, err := articles.ListAll(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("List articles failed")
			return errorResult(fmt.Sprintf("List error: %v", err)), nil
		}

		return textResult(formatArticleList(all, pendingOnly)), nil
	}
}

// handleGetArticle implements the get_article tool
func handleGetArticle(articles interfaces.ArticleStorage, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("article_id")
		if err != nil || id == "" {
			return errorResult("Error: article_id parameter is required"), nil
		}

		article, err := articles.FindByID(ctx, id)
		if err != nil {
			logger.Debug().Err(err).Str("article_id", id).Msg("FindByID failed")
			return errorResult(fmt.Sprintf("Article not found: %v", err)), nil
		}

		return textResult(formatArticle(article)), nil
	}
}

// handleEnhanceArticle implements the enhance_article tool
func handleEnhanceArticle(enhancer handlers.ArticleEnhancer, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("article_id")
		if err != nil || id == "" {
			return errorResult("Error: article_id parameter is required"), nil
		}

		article, err := enhancer.EnhanceArticle(ctx, id)
		if err != nil {
			logger.Warn().Err(err).Str("article_id", id).Msg("Enhancement failed")
			return errorResult(fmt.Sprintf("Enhancement failed (%s): %v", common.KindOf(err), err)), nil
		}

		return textResult(formatArticle(article)), nil
	}
}

// handlePipelineStatus implements the pipeline_status tool
func handlePipelineStatus(runState interfaces.RunStateService, articles interfaces.ArticleStorage, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		count, err := articles.Count(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("Count articles failed")
			return errorResult(fmt.Sprintf("Status error: %v", err)), nil
		}

		return textResult(formatStatus(runState.Snapshot(), count)), nil
	}
}
