package httpmiddleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limited(t *testing.T, max int, keyFunc func(*http.Request) string) http.Handler {
	t.Helper()
	return RateLimit(RateLimitConfig{
		Max:     max,
		Window:  time.Minute,
		KeyFunc: keyFunc,
	})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func place(handler http.Handler, remoteAddr string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/order", nil)
	req.RemoteAddr = remoteAddr
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_WithinBudget(t *testing.T) {
	handler := limited(t, 5, nil)

	for i := range 5 {
		rec := place(handler, "192.168.1.1:12345", nil)
		assert.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
		assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
	}
}

func TestRateLimit_BudgetExhausted(t *testing.T) {
	handler := limited(t, 2, nil)

	for range 2 {
		require.Equal(t, http.StatusOK, place(handler, "10.0.0.1:9999", nil).Code)
	}

	rec := place(handler, "10.0.0.1:9999", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "RATE_LIMITED", body["code"])
	assert.Equal(t, "rate limit exceeded", body["message"])
}

func TestRateLimit_BucketsPerClientIP(t *testing.T) {
	handler := limited(t, 1, nil)

	assert.Equal(t, http.StatusOK, place(handler, "10.0.0.1:1234", nil).Code)
	assert.Equal(t, http.StatusOK, place(handler, "10.0.0.2:1234", nil).Code)

	// Same client on a fresh port still shares the bucket.
	assert.Equal(t, http.StatusTooManyRequests, place(handler, "10.0.0.1:5678", nil).Code)
}

func TestRateLimit_KeyedByAPIKey(t *testing.T) {
	handler := limited(t, 1, func(r *http.Request) string {
		return r.Header.Get("X-API-Key")
	})

	assert.Equal(t, http.StatusOK, place(handler, "10.0.0.1:1", map[string]string{"X-API-Key": "seller-a"}).Code)
	assert.Equal(t, http.StatusTooManyRequests, place(handler, "10.0.0.2:2", map[string]string{"X-API-Key": "seller-a"}).Code)
	assert.Equal(t, http.StatusOK, place(handler, "10.0.0.1:3", map[string]string{"X-API-Key": "seller-b"}).Code)
}

func TestRateLimit_BehindIngress(t *testing.T) {
	handler := limited(t, 1, nil)
	forwarded := map[string]string{"X-Forwarded-For": "203.0.113.50, 70.41.3.18"}

	assert.Equal(t, http.StatusOK, place(handler, "192.168.1.1:4444", forwarded).Code)

	// Different socket peer, same original client.
	assert.Equal(t, http.StatusTooManyRequests, place(handler, "192.168.1.2:5555", forwarded).Code)
}
