package handlers

import (
	"bytes"
	"html"
	"net/http"
	"net/url"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribe/internal/interfaces"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// ArticleHandler serves stored articles and single-article enhancement
type ArticleHandler struct {
	articles interfaces.ArticleStorage
	enhancer ArticleEnhancer
	markdown goldmark.Markdown
	logger   arbor.ILogger
}

// NewArticleHandler creates a new ArticleHandler
func NewArticleHandler(articles interfaces.ArticleStorage, enhancer ArticleEnhancer, logger arbor.ILogger) *ArticleHandler {
	return &ArticleHandler{
		articles: articles,
		enhancer: enhancer,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithXHTML()),
		),
		logger: logger,
	}
}

// ListHandler handles GET /api/articles
func (h *ArticleHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	articles, err := h.articles.ListAll(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list articles")
		WriteErrorFrom(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, articles)
}

// ArticleRoutes handles /api/articles/{id}, /api/articles/{id}/html and /api/articles/{id}/enhance
func (h *ArticleHandler) ArticleRoutes(w http.ResponseWriter, r *http.Request) {
	segments := PathSegments(r.URL.Path, "/api/articles/")
	switch {
	case len(segments) == 1:
		h.getArticle(w, r, segments[0])
	case len(segments) == 2 && segments[1] == "html":
		h.getArticleHTML(w, r, segments[0])
	case len(segments) == 2 && segments[1] == "enhance":
		h.enhanceArticle(w, r, segments[0])
	default:
		WriteError(w, http.StatusNotFound, "not_found", "The requested endpoint does not exist: "+r.URL.Path)
	}
}

func (h *ArticleHandler) getArticle(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	article, err := h.articles.FindByID(r.Context(), id)
	if err != nil {
		WriteErrorFrom(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, article)
}

func (h *ArticleHandler) getArticleHTML(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	article, err := h.articles.FindByID(r.Context(), id)
	if err != nil {
		WriteErrorFrom(w, err)
		return
	}

	var body bytes.Buffer
	if err := h.markdown.Convert([]byte(article.DisplayContent()), &body); err != nil {
		h.logger.Error().Err(err).Str("article_id", id).Msg("Failed to render markdown")
		WriteErrorFrom(w, err)
		return
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>")
	page.WriteString(html.EscapeString(article.Title))
	page.WriteString("</title></head><body><article>\n<h1>")
	page.WriteString(html.EscapeString(article.Title))
	page.WriteString("</h1>\n")
	page.Write(body.Bytes())
	if refs := article.ReferenceList(); len(refs) > 0 {
		page.WriteString("<h2>References</h2>\n<ul>\n")
		for _, ref := range refs {
			page.WriteString("<li>" + referenceItem(ref) + "</li>\n")
		}
		page.WriteString("</ul>\n")
	}
	page.WriteString("</article></body></html>\n")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(page.Bytes())
}

func (h *ArticleHandler) enhanceArticle(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	article, err := h.enhancer.EnhanceArticle(r.Context(), id)
	if err != nil {
		h.logger.Warn().Str("article_id", id).Err(err).Msg("Single article enhancement failed")
		WriteErrorFrom(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, article)
}

// referenceItem links http and https references; anything else is shown as text
func referenceItem(ref string) string {
	escaped := html.EscapeString(ref)
	u, err := url.Parse(ref)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return escaped
	}
	return "<a href=\"" + escaped + "\" rel=\"noopener noreferrer\">" + escaped + "</a>"
}
