package testutil

import (
	"net/http"

	"foodtrust/pkg/requestcontext"
)

// WithRequestID adds a correlation ID to the request context, simulating the
// RequestID middleware.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	ctx := requestcontext.WithRequestID(req.Context(), requestID)
	return req.WithContext(ctx)
}

// WithManufacturer adds an authenticated manufacturer identity to the request
// context, simulating what the auth middleware does for valid tokens.
func WithManufacturer(req *http.Request, manufacturerID string) *http.Request {
	ctx := requestcontext.WithManufacturerID(req.Context(), manufacturerID)
	return req.WithContext(ctx)
}
