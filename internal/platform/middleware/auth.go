package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"foodtrust/pkg/requestcontext"
)

// TokenValidator validates manufacturer access tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*TokenClaims, error)
}

// TokenClaims carries the identity we expect from a validated token.
type TokenClaims struct {
	ManufacturerID string
}

// RequireAuth guards registration endpoints. Consumer verification routes stay
// open; only writes need a manufacturer identity.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing bearer token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w)
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				writeUnauthorized(w)
				return
			}

			ctx = requestcontext.WithManufacturerID(ctx, claims.ManufacturerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","message":"invalid or expired token"}`))
}
