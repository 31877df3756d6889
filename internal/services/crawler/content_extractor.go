// -----------------------------------------------------------------------
// Content Extractor - main-content detection and HTML to text conversion
// -----------------------------------------------------------------------

package crawler

import (
	"math"
	"net/url"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribe/internal/common"
	"github.com/ternarybob/scribe/internal/interfaces"
	"golang.org/x/net/html"
)

// boilerplateSelectors are removed before any content detection
const boilerplateSelectors = "script, style, noscript, iframe, svg, canvas, template, form, button, " +
	"nav, header, footer, aside, img, picture, video, figcaption, " +
	"[role=navigation], [role=banner], [role=contentinfo], [aria-hidden=true], " +
	".sidebar, .comments, .comment-respond, .share, .social, .related-posts, .newsletter, .breadcrumb"

// mainContentSelectors are tried in order before falling back to density scoring
var mainContentSelectors = []string{
	".entry-content",
	".post-content",
	".article-content",
	"article",
	"main",
	"[role=main]",
}

// markupElements are the element names stripMarkup treats as tags
const markupElements = `a|abbr|article|aside|b|blockquote|br|caption|cite|code|dd|del|div|dl|dt|em|` +
	`figure|font|h[1-6]|hr|i|img|ins|kbd|li|mark|ol|p|pre|q|s|section|small|span|strong|` +
	`sub|sup|table|tbody|td|th|thead|tr|u|ul`

var (
	inlineSpaceRegex = regexp.MustCompile(`[ \t\f\v]+`)
	blankRunRegex    = regexp.MustCompile(`\n{3,}`)
	scriptBlockRegex = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	styleBlockRegex  = regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style\s*>`)
	commentRegex     = regexp.MustCompile(`(?s)<!--.*?-->`)
	doctypeRegex     = regexp.MustCompile(`(?i)<!doctype[^<>\n]*>`)
	tagRegex         = regexp.MustCompile(`(?i)</?(?:` + markupElements + `)` +
		`(?:\s+[a-z_:][-a-z0-9_:.]*\s*=\s*(?:"[^"\n]*"|'[^'\n]*'|[^\s"'<>=]+))*\s*/?>`)
)

// ContentExtractor returns clean, human-readable text for an article page.
// Extract is a pure function of its input.
type ContentExtractor struct {
	minParagraphLength int
	logger             arbor.ILogger
}

// NewContentExtractor creates a content extractor
func NewContentExtractor(config common.CrawlerConfig, logger arbor.ILogger) *ContentExtractor {
	return &ContentExtractor{
		minParagraphLength: config.MinParagraphLength,
		logger:             logger,
	}
}

// Extract converts the main content of rawHTML into markdown-ish plain text.
// The result has no markup tags, at most one consecutive blank line, and no
// leading or trailing whitespace. An empty result means nothing usable was found.
func (e *ContentExtractor) Extract(rawHTML string, originURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", common.NewError(common.ErrParse, "extract "+originURL, err)
	}

	doc.Find(boilerplateSelectors).Remove()

	container := e.findMainContent(doc)
	text := e.convertToText(container, originURL)

	if text == "" {
		text = e.paragraphText(doc)
		if text != "" {
			e.logger.Debug().Str("url", originURL).Msg("Markdown conversion empty, used paragraph fallback")
		}
	}

	e.logger.Debug().
		Str("url", originURL).
		Int("length", len(text)).
		Msg("Content extracted")

	return text, nil
}

// findMainContent prefers well-known article containers, then the best density-scored block
func (e *ContentExtractor) findMainContent(doc *goquery.Document) *goquery.Selection {
	for _, selector := range mainContentSelectors {
		var best *goquery.Selection
		bestLen := 0
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			if n := textLength(s); n > bestLen {
				best, bestLen = s, n
			}
		})
		if best != nil && bestLen >= e.minParagraphLength {
			return best
		}
	}

	if best := scoreCandidates(doc); best != nil {
		return best
	}

	return doc.Find("body")
}

type candidate struct {
	selection *goquery.Selection
	score     float64
}

// scoreCandidates credits the parent (and half to the grandparent) of each
// paragraph-like block, then discounts by link density.
func scoreCandidates(doc *goquery.Document) *goquery.Selection {
	candidates := make(map[*html.Node]*candidate)
	var order []*html.Node

	credit := func(s *goquery.Selection, score float64) {
		if s.Length() == 0 {
			return
		}
		node := s.Get(0)
		c, ok := candidates[node]
		if !ok {
			c = &candidate{selection: s}
			candidates[node] = c
			order = append(order, node)
		}
		c.score += score
	}

	doc.Find("p, pre, blockquote, li").Each(func(_ int, p *goquery.Selection) {
		text := strings.TrimSpace(p.Text())
		if len(text) < 25 {
			return
		}
		score := 1 + float64(strings.Count(text, ",")) + math.Min(float64(len(text))/100, 3)
		parent := p.Parent()
		credit(parent, score)
		credit(parent.Parent(), score/2)
	})

	var best *candidate
	for _, node := range order {
		c := candidates[node]
		c.score *= 1 - linkDensity(c.selection)
		if best == nil || c.score > best.score {
			best = c
		}
	}

	if best == nil {
		return nil
	}
	return best.selection
}

func linkDensity(s *goquery.Selection) float64 {
	total := textLength(s)
	if total == 0 {
		return 0
	}
	linkText := 0
	s.Find("a").Each(func(_ int, a *goquery.Selection) {
		linkText += textLength(a)
	})
	return float64(linkText) / float64(total)
}

func textLength(s *goquery.Selection) int {
	return len(strings.TrimSpace(s.Text()))
}

// convertToText renders the container as markdown with links reduced to their text
func (e *ContentExtractor) convertToText(container *goquery.Selection, originURL string) string {
	if container == nil || container.Length() == 0 {
		return ""
	}

	fragment, err := goquery.OuterHtml(container)
	if err != nil {
		e.logger.Warn().Err(err).Str("url", originURL).Msg("Failed to render content container")
		return ""
	}

	converter := md.NewConverter(hostOf(originURL), true, nil)
	converter.AddRules(md.Rule{
		Filter: []string{"a"},
		Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
			return md.String(content)
		},
	})

	markdown, err := converter.ConvertString(fragment)
	if err != nil {
		e.logger.Warn().Err(err).Str("url", originURL).Msg("Failed to convert HTML to markdown")
		return ""
	}

	return CleanText(markdown)
}

// paragraphText concatenates paragraphs longer than the per-paragraph threshold
func (e *ContentExtractor) paragraphText(doc *goquery.Document) string {
	var paragraphs []string
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := strings.TrimSpace(p.Text())
		if len(text) > e.minParagraphLength {
			paragraphs = append(paragraphs, text)
		}
	})
	return CleanText(strings.Join(paragraphs, "\n\n"))
}

// CleanText strips residual markup and normalizes whitespace:
// no tags, single spaces within lines, at most one blank line in a row, trimmed.
// Text is expected to be decoded already, so a bare "<" in prose ("i<n", "a < b") is kept.
func CleanText(text string) string {
	text = stripMarkup(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\u00a0", " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(inlineSpaceRegex.ReplaceAllString(line, " "), " ")
	}
	text = strings.Join(lines, "\n")

	text = blankRunRegex.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// stripMarkup removes script and style blocks, comments, doctypes and well-formed
// tags of known elements, then unescapes entities. A tag must close on its own line
// and carry only name=value attributes.
func stripMarkup(text string) string {
	if !strings.Contains(text, "<") && !strings.Contains(text, "&") {
		return text
	}
	text = scriptBlockRegex.ReplaceAllString(text, "")
	text = styleBlockRegex.ReplaceAllString(text, "")
	text = commentRegex.ReplaceAllString(text, "")
	text = doctypeRegex.ReplaceAllString(text, "")
	text = tagRegex.ReplaceAllString(text, "")
	return html.UnescapeString(text)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

var _ interfaces.ContentExtractor = (*ContentExtractor)(nil)
