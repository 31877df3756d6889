package crawler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribe/internal/common"
)

func newTestExtractor() *ContentExtractor {
	return NewContentExtractor(common.NewDefaultConfig().Crawler, arbor.NewLogger())
}

func assertCleanText(t *testing.T, text string) {
	t.Helper()
	assert.NotContains(t, text, "<")
	assert.NotContains(t, text, ">")
	assert.NotContains(t, text, "\n\n\n")
	assert.Equal(t, strings.TrimSpace(text), text)
}

func TestContentExtractor_ExtractsMainContent(t *testing.T) {
	text, err := newTestExtractor().Extract(articlePage("Choosing a Chatbot", 8), "https://example.com/blogs/choosing-a-chatbot")
	require.NoError(t, err)

	assertCleanText(t, text)
	assert.Contains(t, text, "Sentence 1 explains how chatbots help support teams")
	assert.Contains(t, text, "Sentence 8 explains")
	assert.NotContains(t, text, "newsletter")
	assert.NotContains(t, text, "Copyright")
	assert.NotContains(t, text, "tracking")
	assert.NotContains(t, text, "color:red")
}

func TestContentExtractor_LinksReducedToText(t *testing.T) {
	page := `<html><body><article><div class="entry-content">
<p>Read the <a href="https://example.com/docs">integration guide</a> before wiring the widget into your helpdesk.</p>
<p>Then test the flow end to end with a staging account and real transcripts.</p>
</div></article></body></html>`

	text, err := newTestExtractor().Extract(page, "https://example.com/blogs/widget")
	require.NoError(t, err)

	assertCleanText(t, text)
	assert.Contains(t, text, "Read the integration guide before wiring")
	assert.NotContains(t, text, "https://example.com/docs")
}

func TestContentExtractor_DensityScoringWithoutKnownContainer(t *testing.T) {
	page := `<html><body>
<div class="links"><ul>
<li><a href="/one">A long navigation link that is mostly anchor text</a></li>
<li><a href="/two">Another long navigation link that is all anchor text</a></li>
<li><a href="/three">Yet another long navigation link with only anchor text</a></li>
</ul></div>
<div class="story">
<p>Customer support automation works best when the bot hands off gracefully, with context, to a human agent.</p>
<p>Teams that measure deflection, resolution time, and satisfaction together avoid optimizing a single metric.</p>
<p>Start with the ten most common questions, write clear answers, and expand coverage from real transcripts.</p>
</div>
</body></html>`

	text, err := newTestExtractor().Extract(page, "https://example.com/blogs/automation")
	require.NoError(t, err)

	assertCleanText(t, text)
	assert.Contains(t, text, "Customer support automation works best")
	assert.Contains(t, text, "Start with the ten most common questions")
	assert.NotContains(t, text, "navigation link")
}

func TestContentExtractor_KeepsLessThanInProse(t *testing.T) {
	page := `<html><body><article><div class="entry-content">
<p>Loop while i&lt;n and keep the counter small so the bounds check stays cheap in the hot path.</p>
<p>When a &lt; b holds for every pair, the slice is already sorted and the second pass can be skipped.</p>
<p>Profile before and after the change, since x&lt;y comparisons on strings cost more than on integers.</p>
</div></article></body></html>`

	text, err := newTestExtractor().Extract(page, "https://example.com/blogs/loops")
	require.NoError(t, err)

	assert.Contains(t, text, "Loop while i<n and keep the counter small")
	assert.Contains(t, text, "When a < b holds for every pair")
	assert.Contains(t, text, "x<y comparisons on strings cost more than on integers.")
	assert.GreaterOrEqual(t, len(text), common.DefaultMinContentLength-100)
}

func TestContentExtractor_EmptyDocument(t *testing.T) {
	text, err := newTestExtractor().Extract("<html><body><nav>Menu</nav></body></html>", "https://example.com/blogs/empty")
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"strips tags and decodes entities", "<b>Fast</b> &amp; <i>reliable</i>", "Fast & reliable"},
		{"collapses blank runs", "One\n\n\n\n\nTwo\n\n\nThree", "One\n\nTwo\n\nThree"},
		{"trims", "  \n\n Body text \n\n ", "Body text"},
		{"collapses inline spaces", "Too    many\t\tspaces", "Too many spaces"},
		{"normalizes line endings", "One\r\n\r\n\r\nTwo", "One\n\nTwo"},
		{"drops script bodies", "Keep<script>var x = 1;</script> this", "Keep this"},
		{"replaces non-breaking spaces", "A\u00a0B", "A B"},
		{"whitespace-only blank lines", "One\n   \n \t \nTwo", "One\n\nTwo"},
		{"keeps comparison in prose", "Loop while i<n and stop.", "Loop while i<n and stop."},
		{"keeps spaced comparison", "When a < b and c > d, swap.", "When a < b and c > d, swap."},
		{"keeps tag-like prose without attributes", "If a<b and c>d holds, stop.", "If a<b and c>d holds, stop."},
		{"strips tags with attributes", `<span class="note" data-id=7>Tip</span> here`, "Tip here"},
		{"strips comments and doctype", "<!DOCTYPE html><!-- hidden -->Shown", "Shown"},
		{"drops style bodies", "A<style>.x{color:red}</style>B", "AB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.in))
		})
	}
}
