package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hms/hms/internal/platform/auth"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
	}{
		{"generated", ""},
		{"propagated", "my-custom-id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rec := httptest.NewRecorder()
			c := echo.New().NewContext(req, rec)

			var seen string
			err := RequestID()(func(c echo.Context) error {
				seen, _ = c.Get("request_id").(string)
				return c.NoContent(http.StatusOK)
			})(c)
			require.NoError(t, err)

			require.NotEmpty(t, seen)
			assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
			if tt.incoming != "" {
				assert.Equal(t, tt.incoming, seen)
			} else {
				assert.Len(t, seen, 36)
			}
		})
	}
}

func decodeLogLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line), "log line %q", buf.String())
	return line
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name    string
		handler echo.HandlerFunc
		status  int
		level   string
	}{
		{"success", func(c echo.Context) error { return c.String(http.StatusOK, "ok") }, http.StatusOK, "info"},
		{"not found", func(c echo.Context) error {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}, http.StatusNotFound, "warn"},
		{"store failure", func(c echo.Context) error {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}, http.StatusInternalServerError, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			req := httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)
			req = req.WithContext(auth.WithUser(req.Context(), "user-7", nil))
			rec := httptest.NewRecorder()
			c := echo.New().NewContext(req, rec)
			c.Set("request_id", "req-1")

			_ = Logger(zerolog.New(&buf))(tt.handler)(c)

			assert.Equal(t, tt.status, rec.Code)
			line := decodeLogLine(t, &buf)
			assert.Equal(t, tt.level, line["level"])
			assert.Equal(t, "request", line["message"])
			assert.Equal(t, float64(tt.status), line["status"])
			assert.Equal(t, "user-7", line["user_id"])
			assert.Equal(t, "req-1", line["request_id"])
			assert.Equal(t, "/api/v1/patients", line["path"])
		})
	}
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.Set("request_id", "req-9")

	assert.NotPanics(t, func() {
		_ = Recovery(zerolog.New(&buf))(func(c echo.Context) error {
			panic("test panic")
		})(c)
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	line := decodeLogLine(t, &buf)
	assert.Equal(t, "panic recovered", line["message"])
	assert.Equal(t, "test panic", line["error"])
	assert.Equal(t, "req-9", line["request_id"])
	assert.NotEmpty(t, line["stack"])
}

func TestRecovery_PassesThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/ok", nil), rec)

	err := Recovery(zerolog.Nop())(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}
