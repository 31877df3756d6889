package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribe/internal/common"
	"github.com/ternarybob/scribe/internal/interfaces"
	"github.com/ternarybob/scribe/internal/models"
	"golang.org/x/time/rate"
)

const (
	// DefaultSerperEndpoint is the Serper Google search endpoint.
	DefaultSerperEndpoint = "https://google.serper.dev/search"

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 5
)

// SerperProvider is a SearchProvider backed by the Serper API.
type SerperProvider struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     arbor.ILogger
}

// SerperOption configures the SerperProvider.
type SerperOption func(*SerperProvider)

// WithEndpoint sets a custom endpoint.
func WithEndpoint(endpoint string) SerperOption {
	return func(p *SerperProvider) {
		if endpoint != "" {
			p.endpoint = endpoint
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) SerperOption {
	return func(p *SerperProvider) {
		p.httpClient = httpClient
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) SerperOption {
	return func(p *SerperProvider) {
		p.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// NewSerperProvider creates a Serper search provider.
func NewSerperProvider(apiKey string, logger arbor.ILogger, opts ...SerperOption) *SerperProvider {
	p := &SerperProvider{
		endpoint: DefaultSerperEndpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  logger,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// APIError represents a non-success response from the Serper API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("serper API error: %s (status %d)", e.Message, e.StatusCode)
}

type serperRequest struct {
	Query string `json:"q"`
	Num   int    `json:"num"`
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

// Name identifies the provider in logs
func (p *SerperProvider) Name() string {
	return "serper"
}

// Search returns at most limit organic results. Every failure is an ErrSearch.
func (p *SerperProvider) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	op := "serper search"
	if p.apiKey == "" {
		return nil, common.Errorf(common.ErrSearch, op, "API key not configured")
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, common.NewError(common.ErrSearch, op, fmt.Errorf("rate limit wait: %w", err))
	}

	body, err := json.Marshal(serperRequest{Query: query, Num: limit})
	if err != nil {
		return nil, common.NewError(common.ErrSearch, op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, common.NewError(common.ErrSearch, op, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("X-API-KEY", p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	p.logger.Debug().
		Str("query", query).
		Int("limit", limit).
		Msg("Serper search request")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, common.NewError(common.ErrSearch, op, fmt.Errorf("failed to execute request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		message, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, common.NewError(common.ErrSearch, op, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(message),
		})
	}

	var parsed serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, common.NewError(common.ErrSearch, op, fmt.Errorf("failed to decode response: %w", err))
	}

	results := make([]models.SearchResult, 0, len(parsed.Organic))
	for _, item := range parsed.Organic {
		if item.Link == "" {
			continue
		}
		results = append(results, models.SearchResult{
			Title:   item.Title,
			URL:     item.Link,
			Snippet: item.Snippet,
		})
		if limit > 0 && len(results) == limit {
			break
		}
	}

	p.logger.Info().
		Str("query", query).
		Int("results", len(results)).
		Msg("Serper search complete")

	return results, nil
}

var _ interfaces.SearchProvider = (*SerperProvider)(nil)
