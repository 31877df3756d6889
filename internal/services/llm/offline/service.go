// Package offline renders enhancement output locally without calling a generation API.
// Output is extractive and deterministic, which suits development and tests.
package offline

import (
	"context"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribe/internal/interfaces"
)

const (
	originalLabel  = "ORIGINAL ARTICLE:"
	referenceLabel = "REFERENCE ARTICLE"
)

var (
	sentenceRegex  = regexp.MustCompile(`[^.!?]+[.!?]+`)
	markupRegex    = regexp.MustCompile(`[#*_>` + "`" + `]+`)
	challengeRegex = regexp.MustCompile(`(?i)\b(challenge|however|but|risk|difficult|limitation|problem|cost)`)
)

// TemplateService implements LLMService by restructuring the original article text
// under the Introduction / Key Insights / Challenges / Practical Takeaways / Conclusion headings.
type TemplateService struct {
	logger arbor.ILogger
}

// NewTemplateService creates the offline renderer
func NewTemplateService(logger arbor.ILogger) *TemplateService {
	logger.Info().Msg("Offline template LLM service initialized")
	return &TemplateService{logger: logger}
}

// Chat renders the article found in the prompt. The prompt's original article
// section is used when present, otherwise the whole prompt.
func (s *TemplateService) Chat(ctx context.Context, request interfaces.ChatRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	sentences := splitSentences(originalSection(request.Prompt))
	if len(sentences) == 0 {
		return "", nil
	}

	var b strings.Builder
	section := func(heading string) {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("## " + heading + "\n\n")
	}

	section("Introduction")
	b.WriteString(strings.Join(take(sentences, 0, 2), " "))

	section("Key Insights")
	writeBullets(&b, take(sentences, 2, 4))

	section("Challenges")
	challenges := filter(sentences, challengeRegex)
	if len(challenges) == 0 {
		challenges = take(sentences, 6, 2)
	}
	if len(challenges) == 0 {
		b.WriteString("Applying these ideas takes deliberate effort and careful measurement.")
	} else {
		b.WriteString(strings.Join(take(challenges, 0, 2), " "))
	}

	section("Practical Takeaways")
	takeaways := take(sentences, 8, 3)
	if len(takeaways) == 0 {
		takeaways = take(sentences, 0, 3)
	}
	writeBullets(&b, takeaways)

	section("Conclusion")
	b.WriteString(sentences[len(sentences)-1])

	s.logger.Debug().
		Int("sentences", len(sentences)).
		Int("response_length", b.Len()).
		Msg("Offline template rendered")

	return b.String(), nil
}

// originalSection returns the text between the original-article label and the first reference label
func originalSection(prompt string) string {
	start := strings.Index(prompt, originalLabel)
	if start < 0 {
		return prompt
	}
	text := prompt[start+len(originalLabel):]
	if end := strings.Index(text, referenceLabel); end >= 0 {
		text = text[:end]
	}
	return text
}

func splitSentences(text string) []string {
	text = markupRegex.ReplaceAllString(text, "")
	var sentences []string
	for _, match := range sentenceRegex.FindAllString(text, -1) {
		sentence := strings.Join(strings.Fields(match), " ")
		if len(sentence) > 1 {
			sentences = append(sentences, sentence)
		}
	}
	return sentences
}

func take(items []string, from, n int) []string {
	if from >= len(items) {
		return nil
	}
	to := from + n
	if to > len(items) {
		to = len(items)
	}
	return items[from:to]
}

func filter(items []string, re *regexp.Regexp) []string {
	var out []string
	for _, item := range items {
		if re.MatchString(item) {
			out = append(out, item)
		}
	}
	return out
}

func writeBullets(b *strings.Builder, items []string) {
	for i, item := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- " + item)
	}
}

// HealthCheck always succeeds
func (s *TemplateService) HealthCheck(ctx context.Context) error {
	return nil
}

// GetMode returns the operational mode
func (s *TemplateService) GetMode() interfaces.LLMMode {
	return interfaces.LLMModeOffline
}

// Close releases resources
func (s *TemplateService) Close() error {
	return nil
}

var _ interfaces.LLMService = (*TemplateService)(nil)
