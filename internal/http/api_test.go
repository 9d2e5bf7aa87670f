package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synchron/internal/audit"
	"synchron/internal/domain"
	"synchron/internal/registry"
	"synchron/internal/snapshot"
)

const testToken = "correct-horse"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	log := audit.NewLog(audit.DefaultCapacity)
	reg := registry.New(context.Background(), snapshot.NullStore{}, log, logger)
	t.Cleanup(reg.Close)

	handler := NewHandler(reg, log, AuthConfig{
		AdminToken: testToken,
		JWTSecret:  "test-jwt-secret",
		TokenTTL:   time.Hour,
	}, logger)

	router := gin.New()
	handler.RegisterRoutes(router)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("X-Admin-Token", token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAdminRoutesRejectBadToken(t *testing.T) {
	router := newTestRouter(t)

	for _, token := range []string{"", "wrong"} {
		rec := doJSON(t, router, http.MethodGet, "/api/users", token, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.JSONEq(t, `{"error":"unauthorized access"}`, rec.Body.String())
	}
}

func TestPublicEndpointsNeedNoToken(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/api/status", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterCreateAndRenew(t *testing.T) {
	router := newTestRouter(t)

	// numeric JSON id, as the schedule client sends it
	payload := map[string]any{"id": 430000001, "email": "a@b.com", "name": "Ali"}

	rec := doJSON(t, router, http.MethodPost, "/api/users", testToken, payload)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"totalUsers":1`)

	rec = doJSON(t, router, http.MethodPost, "/api/users", testToken, payload)
	require.Equal(t, http.StatusOK, rec.Code, "re-registration is an update, not a create")
	assert.Contains(t, rec.Body.String(), `"totalUsers":1`)
}

func TestRegisterValidation(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/register", testToken,
		map[string]any{"id": "1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPatchWhitelistOverHTTP(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/users", testToken,
		map[string]any{"id": "500000001", "email": "a@b.com"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPatch, "/api/users/500000001", testToken,
		map[string]any{"email": "x", "status": "Warning"})
	require.Equal(t, http.StatusOK, rec.Code)

	var user domain.UserRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "a@b.com", user.Email)
	assert.Equal(t, domain.StatusWarning, user.Status)
}

func TestNotFoundResponses(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPatch, "/api/users/nope", testToken,
		map[string]any{"name": "X"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/api/users/nope", testToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteUser(t *testing.T) {
	router := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/api/users", testToken,
		map[string]any{"id": "1", "email": "a@b.com"})

	rec := doJSON(t, router, http.MethodDelete, "/api/users/1", testToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "User deleted successfully")

	rec = doJSON(t, router, http.MethodGet, "/api/users", testToken, nil)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestBroadcastRoundTripOverHTTP(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/broadcast", testToken,
		map[string]any{"message": "Server down", "severity": "error"})
	require.Equal(t, http.StatusOK, rec.Code)

	var status domain.PublicStatus
	rec = doJSON(t, router, http.MethodGet, "/api/status", "", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.NotNil(t, status.Broadcast)
	assert.Equal(t, "Server down", status.Broadcast.Message)
	assert.Equal(t, domain.SeverityError, status.Broadcast.Severity)

	rec = doJSON(t, router, http.MethodPost, "/api/broadcast", testToken,
		map[string]any{"message": "", "severity": "info"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/status", "", nil)
	status = domain.PublicStatus{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Nil(t, status.Broadcast)
}

func TestMaintenanceTogglesStats(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/maintenance", testToken,
		map[string]any{"enabled": true})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/stats", testToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats registry.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, "Maintenance", stats.SystemStatus)
}

func TestLogsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/api/users", testToken,
		map[string]any{"id": "1", "email": "a@b.com"})
	doJSON(t, router, http.MethodDelete, "/api/users/1", testToken, nil)

	rec := doJSON(t, router, http.MethodGet, "/api/logs", testToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []audit.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionDelete, entries[0].Action)
	assert.Equal(t, audit.ActionRegisterNew, entries[1].Action)
}

func TestLoginIssuesUsableToken(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/login", "",
		map[string]any{"password": "wrong"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/auth/login", "",
		map[string]any{"password": testToken})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	out := httptest.NewRecorder()
	router.ServeHTTP(out, req)
	assert.Equal(t, http.StatusOK, out.Code)
}

func TestClearCacheAck(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/cache/clear", testToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Server cache cleared successfully")
}
