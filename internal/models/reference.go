package models

// SearchResult is a single organic hit from a search provider
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Reference is a search hit with the extracted text of the page it points to.
// Content is empty when the page could not be fetched or extracted.
type Reference struct {
	SearchResult
	Content string `json:"content,omitempty"`
}

// Text returns the best available text for prompting: page content, falling back to the snippet
func (r Reference) Text() string {
	if r.Content != "" {
		return r.Content
	}
	return r.Snippet
}
