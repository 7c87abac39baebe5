// Package requestcontext provides HTTP-independent accessors for
// request-scoped values.
//
// Middleware sets these values; services and audit emission read them. Keeping
// the package free of net/http lets services import only what they need.
package requestcontext

import (
	"context"
	"time"
)

// Context key types (unexported for encapsulation).
type (
	requestIDKey      struct{}
	manufacturerIDKey struct{}
	requestTimeKey    struct{}
)

// Exported context keys for tests that need context.WithValue directly.
var (
	ContextKeyRequestID      = requestIDKey{}
	ContextKeyManufacturerID = manufacturerIDKey{}
	ContextKeyRequestTime    = requestTimeKey{}
)

// RequestID retrieves the request correlation ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request correlation ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// ManufacturerID retrieves the authenticated manufacturer ID from the context.
// Empty for unauthenticated (consumer) requests.
func ManufacturerID(ctx context.Context) string {
	if mid, ok := ctx.Value(ContextKeyManufacturerID).(string); ok {
		return mid
	}
	return ""
}

// WithManufacturerID injects an authenticated manufacturer ID into the context.
func WithManufacturerID(ctx context.Context, manufacturerID string) context.Context {
	return context.WithValue(ctx, ContextKeyManufacturerID, manufacturerID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() for non-HTTP contexts (workers, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for service unit
// tests that don't run the full HTTP middleware chain.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
