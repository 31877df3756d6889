package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route
	if s.app.WSHandler != nil {
		mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)
	}

	// API routes - Articles
	mux.HandleFunc("/api/articles", s.app.ArticleHandler.ListHandler)
	mux.HandleFunc("/api/articles/", s.app.ArticleHandler.ArticleRoutes) // /{id}, /{id}/html, /{id}/enhance

	// API routes - Pipeline
	mux.HandleFunc("/api/scrape", s.app.PipelineHandler.ScrapeHandler)
	mux.HandleFunc("/api/enhance", s.app.PipelineHandler.EnhanceHandler)
	mux.HandleFunc("/api/status", s.app.StatusHandler.GetStatusHandler)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched routes
	mux.HandleFunc("/", s.app.APIHandler.NotFoundHandler)

	return mux
}
