package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moroccoview/companion/internal/middleware"
)

func get(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/venues", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// A near-zero refill rate makes the burst the whole budget for the test.
func TestRateLimitHandler_rejectsAfterBurst(t *testing.T) {
	l := middleware.NewClientRateLimiter(0.001, 2)
	h := middleware.NewRateLimitHandler(l, nil)(okHandler)

	assert.Equal(t, http.StatusOK, get(h, "10.0.0.1:5000").Code)
	assert.Equal(t, http.StatusOK, get(h, "10.0.0.1:5001").Code)

	rec := get(h, "10.0.0.1:5002")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.JSONEq(t,
		`{"error":{"code":"rate_limited","message":"too many requests, retry later"}}`,
		rec.Body.String())
}

func TestRateLimitHandler_clientsAreIndependent(t *testing.T) {
	l := middleware.NewClientRateLimiter(0.001, 1)
	h := middleware.NewRateLimitHandler(l, nil)(okHandler)

	assert.Equal(t, http.StatusOK, get(h, "10.0.0.1:5000").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(h, "10.0.0.1:5000").Code)
	assert.Equal(t, http.StatusOK, get(h, "10.0.0.2:5000").Code)
}

// Rejected requests must not eat into the budget they are waiting for.
func TestClientRateLimiter_rejectionDoesNotConsumeTokens(t *testing.T) {
	l := middleware.NewClientRateLimiter(0.001, 1)

	require.Zero(t, l.Reserve("a"))
	first := l.Reserve("a")
	second := l.Reserve("a")
	require.Positive(t, first)
	assert.InDelta(t, first.Seconds(), second.Seconds(), 1)
}

func TestClientRateLimiter_zeroBurstRejectsEverything(t *testing.T) {
	l := middleware.NewClientRateLimiter(10, 0)
	assert.Positive(t, l.Reserve("a"))
}
