package search

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribe/internal/common"
	"github.com/ternarybob/scribe/internal/interfaces"
	"github.com/ternarybob/scribe/internal/models"
	"google.golang.org/genai"
)

// ContentGenerator is the slice of the Gemini service the grounded provider needs
type ContentGenerator interface {
	GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GroundedProvider searches through Gemini with Google Search grounding.
// Results are the grounding sources the model cited.
type GroundedProvider struct {
	generator ContentGenerator
	logger    arbor.ILogger
}

// NewGroundedProvider creates a Gemini grounding search provider
func NewGroundedProvider(generator ContentGenerator, logger arbor.ILogger) *GroundedProvider {
	return &GroundedProvider{
		generator: generator,
		logger:    logger,
	}
}

// Name identifies the provider in logs
func (p *GroundedProvider) Name() string {
	return "gemini"
}

// Search returns up to limit distinct grounding sources for query
func (p *GroundedProvider) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	op := "grounded search"

	prompt := fmt.Sprintf("Search the web for articles about: %s\nSummarize the %d most relevant articles you find in one sentence each.", query, limit)
	resp, err := p.generator.GenerateContent(ctx, []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}, &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	})
	if err != nil {
		return nil, common.NewError(common.ErrSearch, op, err)
	}

	results := groundingSources(resp, limit)

	p.logger.Info().
		Str("query", query).
		Int("results", len(results)).
		Msg("Grounded search complete")

	return results, nil
}

// groundingSources collects web chunks from the first candidate's grounding metadata
func groundingSources(resp *genai.GenerateContentResponse, limit int) []models.SearchResult {
	results := []models.SearchResult{}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return results
	}

	seen := make(map[string]bool)
	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" || seen[chunk.Web.URI] {
			continue
		}
		seen[chunk.Web.URI] = true
		results = append(results, models.SearchResult{
			Title: chunk.Web.Title,
			URL:   chunk.Web.URI,
		})
		if limit > 0 && len(results) == limit {
			break
		}
	}
	return results
}

var _ interfaces.SearchProvider = (*GroundedProvider)(nil)
