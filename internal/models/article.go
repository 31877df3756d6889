package models

import (
	"strings"
	"time"
)

// Article is a blog post acquired from the source site
// Lifecycle: created by acquisition, mutated only by enhancement.
type Article struct {
	// Identity
	ID        string `json:"id" badgerhold:"key"`               // art_{uuid}
	SourceURL string `json:"source_url" badgerhold:"unique"` // Canonical origin URL, one article per URL

	// Content
	Title   string `json:"title"`
	Content string `json:"content"` // Extracted markdown-ish plain text

	// Enhancement (nil until the first successful enhancement)
	EnhancedContent *string `json:"enhanced_content"`
	References      *string `json:"references"` // Newline-joined reference URLs from the latest run
	IsUpdated       bool    `json:"is_updated" badgerhold:"index"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReferenceList splits the stored references into URLs
func (a *Article) ReferenceList() []string {
	if a.References == nil || *a.References == "" {
		return []string{}
	}
	return strings.Split(*a.References, "\n")
}

// ApplyEnhancement sets every enhancement field together
func (a *Article) ApplyEnhancement(content string, referenceURLs []string, at time.Time) {
	joined := strings.Join(referenceURLs, "\n")
	a.EnhancedContent = &content
	a.References = &joined
	a.IsUpdated = true
	a.UpdatedAt = at
}

// DisplayContent returns the enhanced content when present, otherwise the original
func (a *Article) DisplayContent() string {
	if a.EnhancedContent != nil && *a.EnhancedContent != "" {
		return *a.EnhancedContent
	}
	return a.Content
}
