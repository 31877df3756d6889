package crawler

import (
	"net/url"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// UntitledArticle is the last-resort title
const UntitledArticle = "Untitled Article"

// DeriveTitle picks an article title: the first h1, then the URL slug, then UntitledArticle
func DeriveTitle(rawHTML string, sourceURL string) string {
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML)); err == nil {
		if h1 := collapseSpaces(doc.Find("h1").First().Text()); h1 != "" {
			return h1
		}
	}

	if title := TitleFromURL(sourceURL); title != "" {
		return title
	}

	return UntitledArticle
}

// TitleFromURL turns the last path segment into a title:
// "/blogs/choosing-the-right-ai-chatbot/" -> "Choosing The Right Ai Chatbot"
func TitleFromURL(sourceURL string) string {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return ""
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	slug := segments[len(segments)-1]
	if unescaped, err := url.PathUnescape(slug); err == nil {
		slug = unescaped
	}
	switch strings.ToLower(path.Ext(slug)) {
	case ".html", ".htm", ".php", ".aspx":
		slug = strings.TrimSuffix(slug, path.Ext(slug))
	}

	words := strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(slug))
	for i, word := range words {
		words[i] = capitalize(word)
	}
	return strings.Join(words, " ")
}

// capitalize upper-cases the first rune, leaving the rest untouched
func capitalize(word string) string {
	first, size := utf8.DecodeRuneInString(word)
	if first == utf8.RuneError {
		return word
	}
	return string(unicode.ToTitle(first)) + word[size:]
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
