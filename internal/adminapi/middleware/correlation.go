package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
)

const correlationIDBytes = 8

type correlationIDKey struct{}

// CorrelationID tags each request with an X-Correlation-ID, reusing one
// supplied by the caller or minting a fresh one.
func CorrelationID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Correlation-ID")
			if id == "" {
				id = generateCorrelationID()
			}

			w.Header().Set("X-Correlation-ID", id)

			ctx := context.WithValue(r.Context(), correlationIDKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetCorrelationID extracts the correlation id set by CorrelationID.
func GetCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return id
	}

	return "unknown"
}

func generateCorrelationID() string {
	b := make([]byte, correlationIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "unavailable"
	}

	return hex.EncodeToString(b)
}
