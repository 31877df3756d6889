package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/scribe/internal/common"
)

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// ErrorBody is the structured error envelope returned by every endpoint
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail names the failure kind and a human-readable message
type ErrorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// WriteError writes a structured error response.
func WriteError(w http.ResponseWriter, statusCode int, kind, message string) error {
	return WriteJSON(w, statusCode, ErrorBody{Error: ErrorDetail{Kind: kind, Message: message}})
}

// WriteErrorFrom writes err with the status code for its kind.
func WriteErrorFrom(w http.ResponseWriter, err error) error {
	message := err.Error()
	var perr *common.PipelineError
	if errors.As(err, &perr) {
		message = perr.Message()
	}
	return WriteError(w, StatusForError(err), common.KindOf(err), message)
}

// StatusForError maps an error kind to its HTTP status code.
func StatusForError(err error) int {
	switch common.KindOf(err) {
	case "not_found":
		return http.StatusNotFound
	case "busy", "exists":
		return http.StatusConflict
	case "validation", "parse":
		return http.StatusUnprocessableEntity
	case "fetch", "search", "generation":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteStarted writes a standard "started" JSON response for async operations.
func WriteStarted(w http.ResponseWriter, message string) error {
	return WriteJSON(w, http.StatusAccepted, map[string]string{
		"status":  "started",
		"message": message,
	})
}

// PathSegments splits the path below prefix into its non-empty segments.
// "/api/articles/abc/html" with prefix "/api/articles/" yields ["abc", "html"].
func PathSegments(path, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}
