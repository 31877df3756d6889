package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"
	"github.com/ternarybob/scribe/internal/app"
	"github.com/ternarybob/scribe/internal/common"
)

func main() {
	_ = godotenv.Load()

	configPath := os.Getenv("SCRIBE_CONFIG")
	if configPath == "" {
		configPath = "scribe.toml"
	}
	var paths []string
	if _, err := os.Stat(configPath); err == nil {
		paths = append(paths, configPath)
	}

	config, err := common.LoadFromFiles(paths...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	// Minimal logging to avoid cluttering MCP stdio
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	mcpServer := newMCPServer(application)

	// Start server (blocks on stdio)
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}

// newMCPServer registers the article tools against the application services
func newMCPServer(application *app.App) *server.MCPServer {
	mcpServer := server.NewMCPServer(
		"scribe",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	articles := application.StorageManager.ArticleStorage()
	mcpServer.AddTool(createListArticlesTool(), handleListArticles(articles, application.Logger))
	mcpServer.AddTool(createGetArticleTool(), handleGetArticle(articles, application.Logger))
	mcpServer.AddTool(createEnhanceArticleTool(), handleEnhanceArticle(application.EnhancerService, application.Logger))
	mcpServer.AddTool(createPipelineStatusTool(), handlePipelineStatus(application.StatusService, articles, application.Logger))

	return mcpServer
}
