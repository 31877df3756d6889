package search

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribe/internal/common"
	"github.com/ternarybob/scribe/internal/interfaces"
	"github.com/ternarybob/scribe/internal/services/llm"
)

// NewSearchProvider creates the provider selected by search.provider
func NewSearchProvider(ctx context.Context, cfg *common.Config, logger arbor.ILogger) (interfaces.SearchProvider, error) {
	switch cfg.Search.Provider {
	case "", "serper":
		if cfg.Search.APIKey == "" {
			logger.Warn().Msg("Serper API key not configured, reference searches will fail")
		}
		return NewSerperProvider(cfg.Search.APIKey, logger,
			WithEndpoint(cfg.Search.Endpoint),
			WithHTTPClient(&http.Client{Timeout: common.ParseDuration(cfg.Search.Timeout, 20*time.Second)}),
		), nil
	case "gemini":
		gemini, err := llm.NewGeminiService(ctx, &cfg.Gemini, logger)
		if err != nil {
			return nil, fmt.Errorf("gemini search provider: %w", err)
		}
		return NewGroundedProvider(gemini, logger), nil
	default:
		return nil, fmt.Errorf("unsupported search provider: %s", cfg.Search.Provider)
	}
}
