package middleware_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/correlator-io/correlator/internal/adminapi/apikey"
	"github.com/correlator-io/correlator/internal/adminapi/middleware"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCorrelationID_GeneratesOneWhenAbsent(t *testing.T) {
	handler := middleware.CorrelationID()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
}

func TestCorrelationID_ReusesCallerSuppliedID(t *testing.T) {
	handler := middleware.CorrelationID()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-ID", "caller-id")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "caller-id", rec.Header().Get("X-Correlation-ID"))
}

func TestGetCorrelationID_DefaultsToUnknown(t *testing.T) {
	assert.Equal(t, "unknown", middleware.GetCorrelationID(context.Background()))
}

func TestRecovery_ConvertsPanicToProblemDetail(t *testing.T) {
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	handler := middleware.Recovery(discardLogger())(panicking)

	req := httptest.NewRequest(http.MethodGet, "/v1/scenarios", nil)
	rec := httptest.NewRecorder()

	assert.NotPanics(t, func() {
		handler.ServeHTTP(rec, req)
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAuthenticate_RejectsMissingKey(t *testing.T) {
	store := apikey.NewMemStore()
	require.NoError(t, store.Add("ops", "s3cret"))

	handler := middleware.Authenticate(store, discardLogger())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/scenarios", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticate_AcceptsValidXAPIKeyHeader(t *testing.T) {
	store := apikey.NewMemStore()
	require.NoError(t, store.Add("ops", "s3cret"))

	handler := middleware.Authenticate(store, discardLogger())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/scenarios", nil)
	req.Header.Set("X-Api-Key", "s3cret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticate_AcceptsBearerToken(t *testing.T) {
	store := apikey.NewMemStore()
	require.NoError(t, store.Add("ops", "s3cret"))

	handler := middleware.Authenticate(store, discardLogger())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/scenarios", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

type denyingLimiter struct{}

func (denyingLimiter) Allow() bool { return false }

func TestRateLimit_RejectsWhenLimiterDenies(t *testing.T) {
	handler := middleware.RateLimit(denyingLimiter{}, discardLogger())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/scenarios", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestGlobalRateLimiter_AllowsWithinBurst(t *testing.T) {
	limiter := middleware.NewGlobalRateLimiter(100)
	assert.True(t, limiter.Allow())
}

func TestCORS_SetsWildcardOriginAndHandlesPreflight(t *testing.T) {
	handler := middleware.CORS(testCORSConfig{})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/v1/scenarios", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

type testCORSConfig struct{}

func (testCORSConfig) GetAllowedOrigins() []string { return []string{"*"} }
func (testCORSConfig) GetAllowedMethods() []string { return []string{"GET", "POST"} }
func (testCORSConfig) GetAllowedHeaders() []string { return []string{"Content-Type"} }
func (testCORSConfig) GetMaxAge() int              { return 3600 }

func TestApply_NilAuthAndRateLimitAreNoOps(t *testing.T) {
	handler := middleware.Apply(okHandler(),
		middleware.WithCorrelationID(),
		middleware.WithAuth(nil, discardLogger()),
		middleware.WithRateLimit(nil, discardLogger()),
	)

	req := httptest.NewRequest(http.MethodGet, "/v1/scenarios", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
