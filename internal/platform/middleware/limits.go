package middleware

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

const DefaultBodyLimit = "1M"

var bodyLimitPattern = regexp.MustCompile(`^\d+(\.\d+)?([KMG]B?|B)?$`)

// ValidBodyLimit reports whether s is a size echo accepts, such as "512K",
// "1M" or "2MB".
func ValidBodyLimit(s string) bool {
	return bodyLimitPattern.MatchString(strings.ToUpper(strings.TrimSpace(s)))
}

// BodyLimit rejects request bodies above limit with 413. Unparseable limits
// fall back to DefaultBodyLimit.
func BodyLimit(limit string) echo.MiddlewareFunc {
	if !ValidBodyLimit(limit) {
		limit = DefaultBodyLimit
	}
	return echomw.BodyLimit(strings.TrimSpace(limit))
}

// RequestTimeout puts a deadline on the request context. A handler failing
// because the deadline passed answers 504. Websocket upgrades are exempt, and
// a non-positive timeout disables the middleware.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	if timeout <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return echomw.ContextTimeoutWithConfig(echomw.ContextTimeoutConfig{
		Skipper: func(c echo.Context) bool { return c.IsWebSocket() },
		Timeout: timeout,
		ErrorHandler: func(err error, c echo.Context) error {
			if errors.Is(err, context.DeadlineExceeded) {
				return echo.NewHTTPError(http.StatusGatewayTimeout, "request exceeded the allowed time").SetInternal(err)
			}
			return err
		},
	})
}
