package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hms/hms/internal/platform/auth"
)

func limitedHandler(cfg RateLimitConfig) echo.HandlerFunc {
	return RateLimit(cfg)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
}

// hit sends one request through h. echo's rate limiter hands a denial to the
// error handler itself, so the outcome is read from the recorded response.
func hit(t *testing.T, h echo.HandlerFunc, userID, ip string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)
	req.RemoteAddr = ip + ":5000"
	if userID != "" {
		req = req.WithContext(auth.WithUser(req.Context(), userID, []string{auth.RoleNurse}))
	}
	rec := httptest.NewRecorder()
	require.NoError(t, h(echo.New().NewContext(req, rec)))
	return rec
}

func TestRateLimit_BurstThenDeny(t *testing.T) {
	h := limitedHandler(RateLimitConfig{RequestsPerSecond: 0.5, BurstSize: 3})

	for i := 0; i < 3; i++ {
		rec := hit(t, h, "nurse-a", "10.0.0.1")
		assert.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
		assert.Equal(t, "0.5", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := hit(t, h, "nurse-a", "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Contains(t, rec.Body.String(), "rate limit exceeded")
}

func TestRateLimit_KeysByUserThenIP(t *testing.T) {
	h := limitedHandler(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})

	assert.Equal(t, http.StatusOK, hit(t, h, "nurse-a", "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(t, h, "nurse-a", "10.0.0.9").Code,
		"same user from another IP shares the bucket")

	assert.Equal(t, http.StatusOK, hit(t, h, "nurse-b", "10.0.0.1").Code,
		"another user behind the same IP has its own bucket")

	assert.Equal(t, http.StatusOK, hit(t, h, "", "10.0.0.1").Code, "anonymous callers are keyed by IP")
	assert.Equal(t, http.StatusTooManyRequests, hit(t, h, "", "10.0.0.1").Code)
}

func TestCallerKey(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:1234"
	key, err := callerKey(e.NewContext(req, httptest.NewRecorder()))
	require.NoError(t, err)
	assert.Equal(t, "ip:192.0.2.7", key)

	req = req.WithContext(auth.WithUser(req.Context(), "doc-1", nil))
	key, err = callerKey(e.NewContext(req, httptest.NewRecorder()))
	require.NoError(t, err)
	assert.Equal(t, "user:doc-1", key)
}

func TestRetryAfterSeconds(t *testing.T) {
	tests := []struct {
		rps  float64
		want int
	}{
		{0, 1},
		{-3, 1},
		{100, 1},
		{1, 1},
		{0.5, 2},
		{0.1, 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, retryAfterSeconds(tt.rps), "rps=%v", tt.rps)
	}
}

func TestRateLimit_DefaultConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	assert.Equal(t, 100.0, cfg.RequestsPerSecond)
	assert.Equal(t, 200, cfg.BurstSize)
	assert.Positive(t, cfg.IdleExpiry)
}
