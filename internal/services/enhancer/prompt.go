package enhancer

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// SystemDirective is the style directive sent with every generation request
const SystemDirective = "You are a professional editor improving technical blog articles."

// maxReferenceChars caps each reference so two references cannot crowd out the original
const maxReferenceChars = 4000

const promptTemplate = `Rewrite the following article in clean, structured Markdown.

Rules:
- Use proper headings (##, ###)
- Keep paragraphs short and readable
- Use bullet points where helpful
- DO NOT repeat the title
- DO NOT include HTML
- DO NOT include emojis
- Keep it professional and factual
- Only state facts found in the original article or the reference articles
- Improve clarity and flow

Structure strictly like this:

## Introduction
<short intro>

## Key Insights
- bullet point
- bullet point
- bullet point

## Challenges
<short paragraph>

## Practical Takeaways
- bullet point
- bullet point

## Conclusion
<closing paragraph>
`

// BuildPrompt renders the generation prompt. Empty references are omitted.
func BuildPrompt(original string, references ...string) string {
	var b strings.Builder
	b.WriteString(promptTemplate)
	b.WriteString("\nORIGINAL ARTICLE:\n")
	b.WriteString(strings.TrimSpace(original))
	b.WriteString("\n")

	n := 0
	for _, reference := range references {
		reference = strings.TrimSpace(reference)
		if reference == "" {
			continue
		}
		n++
		b.WriteString("\nREFERENCE ARTICLE ")
		b.WriteString(strconv.Itoa(n))
		b.WriteString(":\n")
		b.WriteString(truncate(reference, maxReferenceChars))
		b.WriteString("\n")
	}

	return b.String()
}

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
