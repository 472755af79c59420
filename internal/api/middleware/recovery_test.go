package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/jmcardona/atalaya/backend/internal/security/incident"
)

func newBoundaryRouter(t *testing.T) (*gin.Engine, *incident.Logger) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	incidents := incident.NewLogger(t.TempDir(), "test")
	t.Cleanup(func() { incidents.Close() })

	r := gin.New()
	r.Use(ErrorBoundary(incidents, true))
	return r, incidents
}

func TestErrorBoundary_PanicRendersGenericPage(t *testing.T) {
	r, _ := newBoundaryRouter(t)
	r.GET("/boom", func(c *gin.Context) { panic("algo salió mal") })

	req, _ := http.NewRequest("GET", "/boom", nil)
	req.Header.Set("Accept", "text/html")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INCIDENTE DE SEGURIDAD")
}

func TestErrorBoundary_PanicJSONForAPIClients(t *testing.T) {
	r, _ := newBoundaryRouter(t)
	r.GET("/boom", func(c *gin.Context) { panic(errors.New("db down")) })

	req, _ := http.NewRequest("GET", "/boom", nil)
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "incidentId")
}

func TestErrorBoundary_AttachedErrorClassified(t *testing.T) {
	r, _ := newBoundaryRouter(t)
	r.GET("/bad", func(c *gin.Context) {
		c.Status(http.StatusForbidden)
		c.Error(errors.New("acceso restringido"))
	})

	req, _ := http.NewRequest("GET", "/bad", nil)
	req.Header.Set("Accept", "text/html")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "ACCESO DENEGADO")
}

func TestErrorBoundary_PassThroughOnSuccess(t *testing.T) {
	r, _ := newBoundaryRouter(t)
	r.GET("/ok", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	req, _ := http.NewRequest("GET", "/ok", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestClassify(t *testing.T) {
	cases := []struct {
		status  int
		message string
		want    int
	}{
		{http.StatusNotFound, "no existe", http.StatusNotFound},
		{http.StatusForbidden, "denegado", http.StatusForbidden},
		{http.StatusTooManyRequests, "demasiadas", http.StatusTooManyRequests},
		{http.StatusOK, "injection attempt", http.StatusForbidden},
		{http.StatusOK, "cualquier cosa", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		_, status := classify(tc.status, tc.message)
		assert.Equal(t, tc.want, status, "status=%d msg=%q", tc.status, tc.message)
	}
}
