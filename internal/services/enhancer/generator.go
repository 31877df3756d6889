package enhancer

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribe/internal/common"
	"github.com/ternarybob/scribe/internal/interfaces"
)

// Generator produces the rewritten article through the configured LLM service
type Generator struct {
	llm         interfaces.LLMService
	temperature float32
	minLength   int
	logger      arbor.ILogger
}

// NewGenerator creates an enhancement generator
func NewGenerator(llm interfaces.LLMService, temperature float32, minLength int, logger arbor.ILogger) *Generator {
	if minLength <= 0 {
		minLength = common.DefaultMinEnhancedLength
	}
	return &Generator{
		llm:         llm,
		temperature: temperature,
		minLength:   minLength,
		logger:      logger,
	}
}

// Generate rewrites original using up to two reference texts. Either reference may be empty.
// A provider failure is an ErrGeneration; output shorter than the minimum is an ErrValidation.
func (g *Generator) Generate(ctx context.Context, original, ref1, ref2 string) (string, error) {
	start := time.Now()

	text, err := g.llm.Chat(ctx, interfaces.ChatRequest{
		System:      SystemDirective,
		Prompt:      BuildPrompt(original, ref1, ref2),
		Temperature: g.temperature,
	})
	if err != nil {
		return "", common.NewError(common.ErrGeneration, "generate", err)
	}

	text = strings.TrimSpace(text)
	if n := utf8.RuneCountInString(text); n < g.minLength {
		return "", common.Errorf(common.ErrValidation, "generate",
			"generated content too short: %d < %d characters", n, g.minLength)
	}

	g.logger.Debug().
		Int("original_length", len(original)).
		Int("enhanced_length", len(text)).
		Dur("duration", time.Since(start)).
		Msg("Enhanced content generated")

	return text, nil
}
