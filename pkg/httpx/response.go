package httpx

import (
	"encoding/json"
	"net/http"
)

// APIError is the JSON error envelope every endpoint uses.
type APIError struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func (e APIError) Error() string { return e.Code }

// WriteError writes the error envelope with the given status code.
func WriteError(w http.ResponseWriter, status int, code, description string) {
	WriteJSON(w, status, APIError{Code: code, Description: description})
}

// WriteJSON writes a JSON response with the given status code. Token-bearing
// responses must not be cached, so Cache-Control is set unconditionally.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
