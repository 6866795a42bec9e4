package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/correlator-io/correlator/internal/adminapi/apikey"
)

type apiKeyContextKey struct{}

// Authenticate gates every /v1/* request behind a valid API key, checked
// first against X-Api-Key then Authorization: Bearer. Requests for other
// paths (such as /healthz) pass through unauthenticated.
func Authenticate(store apikey.Store, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, "/v1/") {
				next.ServeHTTP(w, r)

				return
			}

			key, ok := extractKey(r)
			if !ok {
				writeUnauthorized(w, r, logger, "missing API key")

				return
			}

			found, ok := store.FindByKey(r.Context(), key)
			if !ok {
				writeUnauthorized(w, r, logger, "invalid API key")

				return
			}

			ctx := context.WithValue(r.Context(), apiKeyContextKey{}, found.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractKey(r *http.Request) (string, bool) {
	if key := r.Header.Get("X-Api-Key"); key != "" {
		return key, true
	}

	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer "), true
	}

	return "", false
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request, logger *slog.Logger, detail string) {
	problem := ProblemDetail{
		Type:          "https://correlator.io/problems/401",
		Title:         "Unauthorized",
		Status:        http.StatusUnauthorized,
		Detail:        detail,
		Instance:      r.URL.Path,
		CorrelationID: GetCorrelationID(r.Context()),
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(http.StatusUnauthorized)

	if err := json.NewEncoder(w).Encode(problem); err != nil {
		logger.Error("failed to encode unauthorized response", slog.String("error", err.Error()))
	}
}
