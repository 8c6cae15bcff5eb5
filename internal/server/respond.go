package server

import (
	"encoding/json"
	"log"
	"net/http"
)

// ErrorResponse is the JSON error shape returned by every handler: a
// human-readable message, a stable machine-readable code, and optionally the
// full list of validation issues.
type ErrorResponse struct {
	Error             string   `json:"error"`
	Code              string   `json:"code,omitempty"`
	Issues            []string `json:"issues,omitempty"`
	RetryAfterSeconds int      `json:"retryAfterSeconds,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
