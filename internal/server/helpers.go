package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/jcalder/brokerd/internal/common"
)

// ErrorResponse is the standard error envelope for REST API responses.
type ErrorResponse struct {
	StatusCode int                    `json:"statusCode"`
	ErrorCode  string                 `json:"errorCode"`
	Message    string                 `json:"message"`
	Timestamp  string                 `json:"timestamp"`
	Path       string                 `json:"path"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// WriteAppError translates an error into the standard envelope. Unexpected
// errors surface as SYS_001 without leaking internals.
func WriteAppError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := common.AsAppError(err)
	WriteJSON(w, appErr.HTTPStatus, ErrorResponse{
		StatusCode: appErr.HTTPStatus,
		ErrorCode:  appErr.Code,
		Message:    appErr.Message,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Path:       r.URL.Path,
		Details:    appErr.Details,
	})
}

// RequireMethod validates the HTTP method and returns true if it matches.
// If it doesn't match, it writes a 405 response and returns false.
func RequireMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	WriteAppError(w, r, &common.AppError{
		Code:       common.CodeInvalidInput,
		Message:    "method not allowed",
		HTTPStatus: http.StatusMethodNotAllowed,
	})
	return false
}

// DecodeJSON reads and decodes JSON from the request body into v.
// Returns false and writes a 400 error if decoding fails.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil {
		WriteAppError(w, r, common.NewInvalidInput("request body is required"))
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteAppError(w, r, common.NewInvalidInput("invalid JSON: "+err.Error()))
		return false
	}
	return true
}

// PathParam extracts a path parameter from the URL path.
// For a pattern like /api/stocks/{symbol}/buy, calling
// PathParam(r, "/api/stocks/", "/buy") extracts the {symbol} part.
func PathParam(r *http.Request, prefix, suffix string) string {
	path := r.URL.Path
	if !strings.HasPrefix(path, prefix) {
		return ""
	}
	rest := path[len(prefix):]
	if suffix != "" {
		idx := strings.Index(rest, suffix)
		if idx < 0 {
			return rest
		}
		return rest[:idx]
	}
	// No suffix — return up to the next /
	if idx := strings.Index(rest, "/"); idx >= 0 {
		return rest[:idx]
	}
	return rest
}
