package middleware

import (
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jmcardona/atalaya/backend/internal/security/incident"
	"github.com/jmcardona/atalaya/backend/internal/security/pages"
)

// ErrorBoundary is the top-level recovery middleware. Panics and unhandled
// errors are classified by status/message heuristics into a themed response
// kind, logged as an incident, and rendered with a fresh incident id. The
// default is a 500 generic page.
func ErrorBoundary(incidents *incident.Logger, verbose bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				entry := GetRequestLogger(c)
				if verbose {
					entry.WithFields(map[string]interface{}{
						"method": c.Request.Method,
						"path":   c.Request.URL.Path,
					}).Errorf("PANIC: %v\nStacktrace:\n%s", r, debug.Stack())
				} else {
					entry.Errorf("PANIC: %v", r)
				}
				renderError(c, incidents, http.StatusInternalServerError, toMessage(r))
			}
		}()

		c.Next()

		// Errors attached by handlers reach the boundary here.
		if len(c.Errors) > 0 && !c.Writer.Written() {
			status := c.Writer.Status()
			if status < http.StatusBadRequest {
				status = http.StatusInternalServerError
			}
			renderError(c, incidents, status, c.Errors.Last().Error())
		}
	}
}

// classify maps a status code and error message onto a themed page kind,
// mirroring the detector categories.
func classify(status int, message string) (pages.Kind, int) {
	msg := strings.ToLower(message)
	switch {
	case strings.Contains(msg, "injection"), strings.Contains(msg, "malicious"):
		return pages.KindInjection, http.StatusForbidden
	case status == http.StatusNotFound:
		return pages.KindNotFound, status
	case status == http.StatusForbidden:
		return pages.KindAccessDenied, status
	case status == http.StatusTooManyRequests:
		return pages.KindRateLimit, status
	default:
		if status < http.StatusBadRequest {
			status = http.StatusInternalServerError
		}
		return pages.KindGeneric, status
	}
}

func renderError(c *gin.Context, incidents *incident.Logger, status int, message string) {
	kind, status := classify(status, message)

	id := incidents.Record(incident.LevelInfo, "UNHANDLED_ERROR", map[string]any{
		"ip":     c.ClientIP(),
		"path":   c.Request.URL.Path,
		"method": c.Request.Method,
		"error":  message,
		"kind":   string(kind),
	})

	if pages.PrefersHTML(c.GetHeader("Accept")) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(status, pages.Render(kind, pages.Details{
			IncidentID: id,
			IP:         pages.NormalizeIP(c.ClientIP()),
			Path:       c.Request.URL.Path,
		}))
	} else {
		c.JSON(status, gin.H{"error": message, "incidentId": id})
	}
	c.Abort()
}

func toMessage(r any) string {
	if err, ok := r.(error); ok {
		return err.Error()
	}
	return "internal server error"
}
