package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribe/internal/common"
	"github.com/ternarybob/scribe/internal/interfaces"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// GeminiService implements the LLMService interface using Google Gemini.
// Calls are spaced by the configured rate limit and retried on quota errors.
type GeminiService struct {
	config  *common.GeminiConfig
	logger  arbor.ILogger
	client  *genai.Client
	timeout time.Duration
	limiter *rate.Limiter
	retry   generationRetry
}

// NewGeminiService creates a new Gemini LLM service instance.
// An API key is required (gemini.api_key, SCRIBE_GEMINI_API_KEY, GEMINI_API_KEY or GOOGLE_API_KEY).
func NewGeminiService(ctx context.Context, config *common.GeminiConfig, logger arbor.ILogger) (*GeminiService, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required (set gemini.api_key or GEMINI_API_KEY)")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      config.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: config.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	service := &GeminiService{
		config:  config,
		logger:  logger,
		client:  client,
		timeout: common.ParseDuration(config.Timeout, 2*time.Minute),
		limiter: newIntervalLimiter(common.ParseDuration(config.RateLimit, 0)),
		retry:   newGenerationRetry(),
	}

	logger.Info().
		Str("model", config.Model).
		Dur("timeout", service.timeout).
		Msg("Gemini LLM service initialized")

	return service, nil
}

// newIntervalLimiter allows one call per interval; zero means unlimited
func newIntervalLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// Chat sends the prompt with the system directive as the system instruction
func (s *GeminiService) Chat(ctx context.Context, request interfaces.ChatRequest) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(request.Temperature),
	}
	if request.System != "" {
		config.SystemInstruction = genai.NewContentFromText(request.System, genai.RoleUser)
	}

	start := time.Now()
	resp, err := s.GenerateContent(ctx, []*genai.Content{
		genai.NewContentFromText(request.Prompt, genai.RoleUser),
	}, config)
	if err != nil {
		return "", err
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from Gemini API")
	}

	text := resp.Text()
	s.logger.Debug().
		Str("model", s.config.Model).
		Int("prompt_length", len(request.Prompt)).
		Int("response_length", len(text)).
		Dur("duration", time.Since(start)).
		Msg("Gemini chat completed")

	return text, nil
}

// GenerateContent performs a rate-limited, retried GenerateContent call against the configured model
func (s *GeminiService) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var resp *genai.GenerateContentResponse
	err := s.retry.do(callCtx, s.logger, "gemini.generate", func() error {
		if err := s.limiter.Wait(callCtx); err != nil {
			return err
		}
		var apiErr error
		resp, apiErr = s.client.Models.GenerateContent(callCtx, s.config.Model, contents, config)
		return apiErr
	})
	if err != nil {
		return nil, fmt.Errorf("Gemini API call failed: %w", err)
	}
	return resp, nil
}

// HealthCheck verifies the client is configured
func (s *GeminiService) HealthCheck(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("Gemini client not initialized")
	}
	return nil
}

// GetMode returns the operational mode
func (s *GeminiService) GetMode() interfaces.LLMMode {
	return interfaces.LLMModeCloud
}

// Close releases resources
func (s *GeminiService) Close() error {
	s.client = nil
	return nil
}

var _ interfaces.LLMService = (*GeminiService)(nil)
