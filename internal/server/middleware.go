package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribe/internal/handlers"
)

// RequestIDHeader carries the id used to correlate a request's log lines
const RequestIDHeader = "X-Request-ID"

// withMiddleware wraps the router. The websocket route only gets panic recovery,
// since the trace and CORS wrappers would hold the hijacked connection's writer.
func (s *Server) withMiddleware(router http.Handler) http.Handler {
	api := s.trace(s.cors(s.recoverPanics(router)))
	ws := s.recoverPanics(router)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws" {
			ws.ServeHTTP(w, r)
			return
		}
		api.ServeHTTP(w, r)
	})
}

// trace tags the request with an id and logs its outcome along with the
// pipeline context it touched: the article for article routes, the run state
// for scrape and enhance triggers.
func (s *Server) trace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logger := s.app.Logger.WithCorrelationId(id)
		event := logger.Debug()
		if rec.status >= http.StatusInternalServerError {
			event = logger.Warn()
		}
		event = event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start))
		event = s.withPipelineContext(event, r, rec.status)
		event.Msg("HTTP request")
	})
}

// withPipelineContext adds the article id or run state a request concerns
func (s *Server) withPipelineContext(event arbor.ILogEvent, r *http.Request, status int) arbor.ILogEvent {
	path := r.URL.Path
	switch {
	case strings.HasPrefix(path, "/api/articles/"):
		if segments := handlers.PathSegments(path, "/api/articles/"); len(segments) > 0 {
			event = event.Str("article_id", segments[0])
		}
	case path == "/api/scrape" || path == "/api/enhance":
		if r.Method == http.MethodPost && s.app.StatusService != nil {
			event = event.Str("run_state", string(s.app.StatusService.Snapshot().State))
			if status == http.StatusConflict {
				event = event.Str("outcome", "busy")
			}
		}
	}
	return event
}

// cors allows browser clients on any origin to call the API
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
		w.Header().Set("Access-Control-Expose-Headers", RequestIDHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// recoverPanics turns a handler panic into a structured 500
func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				s.app.Logger.Error().
					Str("panic", fmt.Sprintf("%v", p)).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Msg("Handler panic recovered")
				handlers.WriteError(w, http.StatusInternalServerError, "internal", "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// statusRecorder remembers the response status for trace
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// Unwrap exposes the underlying writer to http.ResponseController
func (rec *statusRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}
