package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribe/internal/common"
	"github.com/ternarybob/scribe/internal/interfaces"
)

// claudeMaxRetries is the SDK retry budget per message
const claudeMaxRetries = 3

// ClaudeService implements the LLMService interface using Anthropic Claude API.
type ClaudeService struct {
	config    *common.ClaudeConfig
	logger    arbor.ILogger
	client    anthropic.Client
	timeout   time.Duration
	maxTokens int
}

// NewClaudeService creates a new Claude LLM service instance.
// An API key is required (claude.api_key, SCRIBE_CLAUDE_API_KEY or ANTHROPIC_API_KEY).
// Rate limits and overloads are retried by the SDK, which honors retry-after headers.
func NewClaudeService(config *common.ClaudeConfig, logger arbor.ILogger, opts ...option.RequestOption) (*ClaudeService, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required (set claude.api_key or ANTHROPIC_API_KEY)")
	}

	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	base := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(claudeMaxRetries),
	}
	client := anthropic.NewClient(append(base, opts...)...)

	service := &ClaudeService{
		config:    config,
		logger:    logger,
		client:    client,
		timeout:   common.ParseDuration(config.Timeout, 2*time.Minute),
		maxTokens: maxTokens,
	}

	logger.Info().
		Str("model", config.Model).
		Dur("timeout", service.timeout).
		Int("max_tokens", maxTokens).
		Msg("Claude LLM service initialized")

	return service, nil
}

// Chat sends a single user message with the system directive
func (s *ClaudeService) Chat(ctx context.Context, request interfaces.ChatRequest) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.config.Model),
		MaxTokens: int64(s.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(request.Prompt)),
		},
		Temperature: anthropic.Float(float64(request.Temperature)),
	}
	if request.System != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: request.System},
		}
	}

	start := time.Now()
	resp, err := s.client.Messages.New(callCtx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			s.logger.Warn().
				Int("status", apiErr.StatusCode).
				Str("model", s.config.Model).
				Msg("Claude API returned an error")
		}
		return "", fmt.Errorf("Claude API call failed: %w", err)
	}

	var response strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			response.WriteString(block.Text)
		}
	}

	s.logger.Debug().
		Str("model", s.config.Model).
		Int("response_length", response.Len()).
		Dur("duration", time.Since(start)).
		Msg("Claude chat completed")

	return response.String(), nil
}

// HealthCheck verifies the service is configured
func (s *ClaudeService) HealthCheck(ctx context.Context) error {
	if s.config.APIKey == "" {
		return fmt.Errorf("Claude API key not configured")
	}
	return nil
}

// GetMode returns the operational mode
func (s *ClaudeService) GetMode() interfaces.LLMMode {
	return interfaces.LLMModeCloud
}

// Close releases resources
func (s *ClaudeService) Close() error {
	return nil
}

var _ interfaces.LLMService = (*ClaudeService)(nil)
