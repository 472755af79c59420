package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jmcardona/atalaya/backend/internal/logger"
	"github.com/jmcardona/atalaya/backend/internal/security/incident"
	"github.com/jmcardona/atalaya/backend/internal/security/pages"
	"github.com/jmcardona/atalaya/backend/internal/security/ratelimit"
)

const maxCSPReportBytes = 64 * 1024

// SecurityHandler exposes the operator-facing security endpoints.
type SecurityHandler struct {
	logPath string
	limits  *ratelimit.Registry
}

// NewSecurityHandler builds the handler over the active incident log and the
// quota registry.
func NewSecurityHandler(logPath string, limits *ratelimit.Registry) *SecurityHandler {
	return &SecurityHandler{logPath: logPath, limits: limits}
}

// Stats aggregates the live incident log plus the rate-limit configuration.
func (h *SecurityHandler) Stats(c *gin.Context) {
	stats, err := incident.ReadStats(h.logPath, time.Now())
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudieron leer las estadísticas"})
		return
	}

	buckets := make(map[string]gin.H)
	for name, cfg := range h.limits.Snapshot() {
		buckets[name] = gin.H{
			"windowSeconds": int(cfg.Window.Seconds()),
			"max":           cfg.Max,
			"retryHint":     cfg.RetryHint,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"incidents":  stats,
		"rateLimits": buckets,
	})
}

// CSPReport accepts browser Content-Security-Policy violation reports. The
// report is logged for visibility but deliberately produces no incident:
// violations are browser telemetry, not attacker activity.
func (h *SecurityHandler) CSPReport(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCSPReportBytes))
	if err == nil && len(body) > 0 {
		logger.WithFields(map[string]any{
			"ip":     c.ClientIP(),
			"report": string(body),
		}).Warn("csp violation reported")
	}
	c.Status(http.StatusNoContent)
}

// RateLimitPage renders the themed wait page browsers are redirected to when
// a quota bucket rejects them.
func (h *SecurityHandler) RateLimitPage(c *gin.Context) {
	hint := c.Query("retryAfter")
	if hint == "" {
		hint = "unos minutos"
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusTooManyRequests, pages.Render(pages.KindRateLimit, pages.Details{
		IncidentID: incident.NewID(),
		IP:         pages.NormalizeIP(c.ClientIP()),
		RetryHint:  hint,
	}))
}
