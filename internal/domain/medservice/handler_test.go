package medservice

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/httputil"
)

func newTestServer() *echo.Echo {
	svc, _, _ := newTestService()
	e := echo.New()
	e.Validator = httputil.NewValidator()
	NewHandler(svc).RegisterRoutes(e.Group("/api/v1"))
	return e
}

func do(e *echo.Echo, method, path, body string, roles ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(auth.WithUser(req.Context(), "user-1", roles))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandler_CreateAndToggle(t *testing.T) {
	e := newTestServer()

	rec := do(e, http.MethodPost, "/api/v1/medical-services",
		`{"name":"Blood panel","price":"35.00","category":"lab"}`, auth.RoleAdmin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var ms MedicalService
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ms))
	assert.True(t, ms.Active)

	rec = do(e, http.MethodPost, "/api/v1/medical-services/"+ms.ID.String()+"/toggle-status",
		`{"current_status":true}`, auth.RoleAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ms))
	assert.False(t, ms.Active)
}

func TestHandler_ToggleRequiresCurrentStatus(t *testing.T) {
	e := newTestServer()

	rec := do(e, http.MethodPost, "/api/v1/medical-services/"+uuid.NewString()+"/toggle-status", `{}`, auth.RoleAdmin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_WritesAreAdminOnly(t *testing.T) {
	e := newTestServer()

	rec := do(e, http.MethodPost, "/api/v1/medical-services", `{"name":"X-ray"}`, auth.RoleDoctor)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(e, http.MethodGet, "/api/v1/medical-services", "", auth.RoleDoctor)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodGet, "/api/v1/medical-services", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandler_DeleteMissingIsNoContent(t *testing.T) {
	e := newTestServer()

	rec := do(e, http.MethodDelete, "/api/v1/medical-services/"+uuid.NewString(), "", auth.RoleAdmin)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
