// Package shared centralizes the JSON response envelope so every handler
// speaks the same dialect.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "foodtrust/pkg/domain-errors"
)

// WriteJSON writes a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// errorEnvelope is the JSON error shape for all endpoints.
type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError translates a domain error into the HTTP error envelope.
// Unrecognized errors collapse to a generic 500 so internals never leak.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	WriteJSON(w, dErrors.ToHTTPStatus(code), errorEnvelope{
		Error:   string(code),
		Message: dErrors.MessageOf(err),
	})
}
