package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func newLimited(t *testing.T, cfg RateLimitConfig) (*RateLimiter, http.Handler) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	rl := NewRateLimiter(ctx, cfg)
	return rl, rl.Handler(okHandler())
}

func serve(h http.Handler, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if remote != "" {
		req.RemoteAddr = remote
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_AllowsWithinLimit(t *testing.T) {
	_, h := newLimited(t, RateLimitConfig{RequestsPerSecond: 100, Burst: 10})

	for range 5 {
		rec := serve(h, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimiter_RejectsOverBurst(t *testing.T) {
	_, h := newLimited(t, RateLimitConfig{RequestsPerSecond: 1, Burst: 2})

	for range 2 {
		require.Equal(t, http.StatusOK, serve(h, "").Code)
	}
	rec := serve(h, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "rate limit exceeded")
}

func TestRateLimiter_PerClientIsolation(t *testing.T) {
	_, h := newLimited(t, RateLimitConfig{RequestsPerSecond: 1, Burst: 2})

	for range 2 {
		require.Equal(t, http.StatusOK, serve(h, "10.0.0.1:1234").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, serve(h, "10.0.0.1:5678").Code)
	assert.Equal(t, http.StatusOK, serve(h, "10.0.0.2:1234").Code,
		"a different client must not share the exhausted bucket")
}

func TestRateLimiter_SweepsIdleClients(t *testing.T) {
	rl, h := newLimited(t, RateLimitConfig{RequestsPerSecond: 1, Burst: 1, IdleTTL: 20 * time.Millisecond})

	serve(h, "10.0.0.1:1")
	assert.Eventually(t, func() bool {
		rl.mu.Lock()
		defer rl.mu.Unlock()
		return len(rl.visitors) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestRateLimiter_StopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	NewRateLimiter(ctx, RateLimitConfig{RequestsPerSecond: 1, Burst: 1})
	cancel()
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		want       string
	}{
		{name: "ipv4_with_port", remoteAddr: "192.168.1.1:12345", want: "192.168.1.1"},
		{name: "ipv6_with_port", remoteAddr: "[::1]:12345", want: "::1"},
		{name: "no_port", remoteAddr: "192.168.1.1", want: "192.168.1.1"},
		{name: "forwarded_header_ignored", remoteAddr: "10.0.0.1:1234", xff: "203.0.113.50", want: "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}
