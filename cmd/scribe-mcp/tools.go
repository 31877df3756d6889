package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createListArticlesTool returns the list_articles tool definition
func createListArticlesTool() mcp.Tool {
	return mcp.NewTool("list_articles",
		mcp.WithDescription("List stored blog articles with their enhancement state"),
		mcp.WithBoolean("pending_only",
			mcp.Description("Only list articles that have not been enhanced yet"),
		),
	)
}

// createGetArticleTool returns the get_article tool definition
func createGetArticleTool() mcp.Tool {
	return mcp.NewTool("get_article",
		mcp.WithDescription("Retrieve a single article by ID, including enhanced content and references"),
		mcp.WithString("article_id",
			mcp.Required(),
			mcp.Description("Article ID (format: art_{uuid})"),
		),
	)
}

// createEnhanceArticleTool returns the enhance_article tool definition
func createEnhanceArticleTool() mcp.Tool {
	return mcp.NewTool("enhance_article",
		mcp.WithDescription("Rewrite one article using search references and the configured LLM"),
		mcp.WithString("article_id",
			mcp.Required(),
			mcp.Description("Article ID (format: art_{uuid})"),
		),
	)
}

// createPipelineStatusTool returns the pipeline_status tool definition
func createPipelineStatusTool() mcp.Tool {
	return mcp.NewTool("pipeline_status",
		mcp.WithDescription("Report whether an acquisition or enhancement run is active, plus the last run outcome"),
	)
}
