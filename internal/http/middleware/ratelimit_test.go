package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/hartwood-buildings/crm-api/internal/auth"
	"github.com/hartwood-buildings/crm-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLimiter(t *testing.T) *RateLimiter {
	t.Helper()
	return NewRateLimiter(&config.RateLimitConfig{
		Enabled:               true,
		RequestsPerMinute:     1,
		RequestsPerMinuteAuth: 2,
		BurstSize:             1,
		WhitelistIPs:          []string{"10.0.0.9"},
		WhitelistPaths:        []string{"/metrics", "/internal/*"},
	}, zap.NewNop())
}

func hit(t *testing.T, h http.Handler, path, ip string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, nil)
	req.Header.Set("X-Real-IP", ip)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestThrottle(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("tracking endpoints absorb the burst allowance then throttle", func(t *testing.T) {
		h := newTestLimiter(t).Throttle(ok)
		pixel := "/api/v1/public/quote-emails/" + uuid.NewString() + "/open"

		// Base rate 1 plus burst 1.
		assert.Equal(t, http.StatusOK, hit(t, h, pixel, "203.0.113.5").Code)
		assert.Equal(t, http.StatusOK, hit(t, h, pixel, "203.0.113.5").Code)

		rec := hit(t, h, pixel, "203.0.113.5")
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "60", rec.Header().Get("Retry-After"))

		// A different caller has its own bucket.
		assert.Equal(t, http.StatusOK, hit(t, h, pixel, "203.0.113.6").Code)
	})

	t.Run("staff traffic is keyed per authenticated user", func(t *testing.T) {
		h := newTestLimiter(t).Throttle(ok)
		alice := &auth.UserContext{UserID: uuid.New()}
		bob := &auth.UserContext{UserID: uuid.New()}

		send := func(user *auth.UserContext) int {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/leads", nil)
			req.Header.Set("X-Real-IP", "198.51.100.1")
			req = req.WithContext(auth.WithUserContext(req.Context(), user))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			return rec.Code
		}

		assert.Equal(t, http.StatusOK, send(alice))
		assert.Equal(t, http.StatusOK, send(alice))
		assert.Equal(t, http.StatusTooManyRequests, send(alice))

		// Same source IP, different user, fresh bucket.
		assert.Equal(t, http.StatusOK, send(bob))
	})

	t.Run("health probes and configured paths are exempt", func(t *testing.T) {
		h := newTestLimiter(t).Throttle(ok)
		for i := 0; i < 5; i++ {
			assert.Equal(t, http.StatusOK, hit(t, h, "/health", "192.0.2.1").Code)
			assert.Equal(t, http.StatusOK, hit(t, h, "/health/ready", "192.0.2.1").Code)
			assert.Equal(t, http.StatusOK, hit(t, h, "/metrics", "192.0.2.1").Code)
			assert.Equal(t, http.StatusOK, hit(t, h, "/internal/debug/vars", "192.0.2.1").Code)
		}
	})

	t.Run("listed caller IPs are exempt", func(t *testing.T) {
		h := newTestLimiter(t).Throttle(ok)
		pixel := "/api/v1/public/customers/" + uuid.NewString() + "/visit"
		for i := 0; i < 5; i++ {
			assert.Equal(t, http.StatusOK, hit(t, h, pixel, "10.0.0.9").Code)
		}
	})

	t.Run("disabled limiter passes everything through", func(t *testing.T) {
		rl := NewRateLimiter(&config.RateLimitConfig{Enabled: false}, zap.NewNop())
		h := rl.Throttle(ok)
		for i := 0; i < 10; i++ {
			assert.Equal(t, http.StatusOK, hit(t, h, "/api/v1/public/quotes/x/view", "192.0.2.7").Code)
		}
	})
}

func TestCallerIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/leads", nil)
	req.RemoteAddr = "192.0.2.10:54321"
	assert.Equal(t, "192.0.2.10", callerIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.2")
	assert.Equal(t, "198.51.100.2", callerIP(req))

	// First X-Forwarded-For hop wins over everything else.
	req.Header.Set("X-Forwarded-For", "203.0.113.1, 10.1.2.3")
	assert.Equal(t, "203.0.113.1", callerIP(req))
}
