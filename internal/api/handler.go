// Package api provides the HTTP handlers for the echo API.
package api

import (
	"encoding/json"
	"net/http"

	"echo/internal/apperr"
	"echo/internal/config"
	"echo/internal/llm"
	"echo/internal/store"
)

// Handler provides common handler dependencies and utilities.
type Handler struct {
	records  *store.Records
	streamer llm.Streamer
	cfg      *config.Config
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(records *store.Records, streamer llm.Streamer, cfg *config.Config) *Handler {
	return &Handler{records: records, streamer: streamer, cfg: cfg}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Fail writes the standard error envelope for an application error.
func Fail(w http.ResponseWriter, appErr *apperr.Error) {
	JSON(w, appErr.Status, map[string]interface{}{
		"success":    false,
		"error_code": appErr.Code,
		"error":      appErr.Message,
	})
}

// decode parses a JSON request body into v.
func decode(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
