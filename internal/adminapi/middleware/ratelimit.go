package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"
)

const (
	burstMultiplier = 2
)

// RateLimiter reports whether a request should be allowed. Implementations
// may be in-memory (single admin API instance) or distributed.
type RateLimiter interface {
	Allow() bool
}

// GlobalRateLimiter is a single token-bucket limiter shared by every
// request the admin API receives — the control plane is low-volume, so
// unlike the teacher's three-tier ingestion limiter a single global
// bucket is enough.
type GlobalRateLimiter struct {
	limiter *rate.Limiter
}

// NewGlobalRateLimiter returns a limiter allowing rps requests per
// second with a burst of 2×rps.
func NewGlobalRateLimiter(rps int) *GlobalRateLimiter {
	return &GlobalRateLimiter{limiter: rate.NewLimiter(rate.Limit(rps), rps*burstMultiplier)}
}

// Allow implements RateLimiter.
func (g *GlobalRateLimiter) Allow() bool {
	return g.limiter.Allow()
}

// RateLimit rejects requests with 429 once limiter denies them.
func RateLimit(limiter RateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				correlationID := GetCorrelationID(r.Context())

				problem := ProblemDetail{
					Type:          "https://correlator.io/problems/429",
					Title:         "Too Many Requests",
					Status:        http.StatusTooManyRequests,
					Detail:        "rate limit exceeded, retry after some time",
					Instance:      r.URL.Path,
					CorrelationID: correlationID,
				}

				w.Header().Set("Content-Type", "application/problem+json")
				w.WriteHeader(http.StatusTooManyRequests)

				if err := json.NewEncoder(w).Encode(problem); err != nil {
					logger.Error("failed to encode rate limit response", slog.String("error", err.Error()))
				}

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
