package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func runWithRoles(t *testing.T, roles []string, mw echo.MiddlewareFunc) error {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if roles != nil {
		req = req.WithContext(WithUser(req.Context(), "user-1", roles))
	}
	c := e.NewContext(req, httptest.NewRecorder())
	return mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name    string
		roles   []string
		require []string
		allowed bool
	}{
		{"matching role", []string{RoleDoctor}, []string{RoleDoctor, RoleNurse}, true},
		{"admin bypass", []string{RoleAdmin}, []string{RoleAccountant}, true},
		{"wrong role", []string{RoleReceptionist}, []string{RolePharmacist}, false},
		{"no roles", []string{}, []string{RoleDoctor}, false},
		{"unauthenticated", nil, []string{RoleDoctor}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runWithRoles(t, tt.roles, RequireRole(tt.require...))
			if tt.allowed {
				if err != nil {
					t.Fatalf("expected access, got %v", err)
				}
				return
			}
			httpErr, ok := err.(*echo.HTTPError)
			if !ok {
				t.Fatalf("expected echo.HTTPError, got %T", err)
			}
			if httpErr.Code != http.StatusForbidden {
				t.Errorf("expected 403, got %d", httpErr.Code)
			}
		})
	}
}
