package handlers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcardona/atalaya/backend/internal/security/ratelimit"
)

func securityRouter(t *testing.T, logPath string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := NewSecurityHandler(logPath, ratelimit.NewRegistry(true))
	r := gin.New()
	r.GET("/api/security/stats", h.Stats)
	r.POST("/api/csp-violation-report", h.CSPReport)
	r.GET("/error-429", h.RateLimitPage)
	return r
}

func TestSecurityHandler_StatsEmptyLog(t *testing.T) {
	r := securityRouter(t, filepath.Join(t.TempDir(), "security.log"))

	req, _ := http.NewRequest("GET", "/api/security/stats", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":0`)
	assert.Contains(t, w.Body.String(), "rateLimits")
	assert.Contains(t, w.Body.String(), "account_creation")
}

func TestSecurityHandler_StatsAggregatesLog(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "security.log")
	line := `{"incidentId":"a1","timestamp":"2026-03-01T11:00:00Z","level":"HIGH","type":"FORBIDDEN_ROUTE_ACCESS","details":{"ip":"1.1.1.1"}}` + "\n"
	require.NoError(t, os.WriteFile(logPath, []byte(line), 0o644))

	r := securityRouter(t, logPath)

	req, _ := http.NewRequest("GET", "/api/security/stats", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)
	assert.Contains(t, w.Body.String(), "FORBIDDEN_ROUTE_ACCESS")
	assert.Contains(t, w.Body.String(), "1.1.1.1")
}

func TestSecurityHandler_CSPReport(t *testing.T) {
	r := securityRouter(t, filepath.Join(t.TempDir(), "security.log"))

	body := `{"csp-report":{"blocked-uri":"https://evil.example","violated-directive":"script-src"}}`
	req, _ := http.NewRequest("POST", "/api/csp-violation-report", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/csp-report")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestSecurityHandler_RateLimitPage(t *testing.T) {
	r := securityRouter(t, filepath.Join(t.TempDir(), "security.log"))

	req, _ := http.NewRequest("GET", "/error-429?retryAfter=15+minutos", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "LÍMITE DE SOLICITUDES EXCEDIDO")
	assert.Contains(t, w.Body.String(), "15 minutos")
}

func TestSecurityHandler_RateLimitPageDefaultHint(t *testing.T) {
	r := securityRouter(t, filepath.Join(t.TempDir(), "security.log"))

	req, _ := http.NewRequest("GET", "/error-429", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "unos minutos")
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", Health)

	req, _ := http.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.Contains(t, w.Body.String(), "uptime")
	assert.Contains(t, w.Body.String(), "timestamp")
}
