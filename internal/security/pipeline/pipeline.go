// Package pipeline orchestrates the inline request-security checks. Every
// inbound request flows through a fixed middleware order: fingerprint
// obfuscation, honeypot decoys, malicious-content scanning, rate limiting,
// forbidden-path blocking and threat-intel escalation. Each non-allow
// terminal produces exactly one incident record and one rendered response.
package pipeline

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jmcardona/atalaya/backend/internal/metrics"
	"github.com/jmcardona/atalaya/backend/internal/security/catalog"
	"github.com/jmcardona/atalaya/backend/internal/security/incident"
	"github.com/jmcardona/atalaya/backend/internal/security/pages"
	"github.com/jmcardona/atalaya/backend/internal/security/ratelimit"
	"github.com/jmcardona/atalaya/backend/internal/security/threatintel"
)

// maxScanBytes bounds how much request body the content scanner reads,
// matching the server's body size limit.
const maxScanBytes = 10 << 20

// Pipeline bundles the security components into gin middleware. Construct
// once at startup and attach via Middlewares; global state is deliberately
// avoided so tests get fresh instances.
type Pipeline struct {
	incidents *incident.Logger
	history   *incident.History
	limits    *ratelimit.Registry
	intel     *threatintel.Cache
}

// New assembles the pipeline from its components.
func New(incidents *incident.Logger, history *incident.History, limits *ratelimit.Registry, intel *threatintel.Cache) *Pipeline {
	return &Pipeline{
		incidents: incidents,
		history:   history,
		limits:    limits,
		intel:     intel,
	}
}

// Middlewares returns the chain in its required order. The forbidden-path
// guard runs ahead of the honeypot: several sensitive filenames (.env, .git)
// are also honeypot substrings, and a probe for a real sensitive file must
// surface as a 403 with the client IP, not as a decoy 404.
func (p *Pipeline) Middlewares() []gin.HandlerFunc {
	return []gin.HandlerFunc{
		p.Obfuscation(),
		p.ForbiddenRoutes(),
		p.Honeypot(),
		p.MaliciousContent(),
		p.RateLimit(),
		p.ThreatIntel(),
	}
}

// Obfuscation strips server-identifying headers and plants a decoy banner.
// It runs unconditionally, whatever the terminal outcome.
func (p *Pipeline) Obfuscation() gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.IncEvaluated()
		h := c.Writer.Header()
		h.Del("Server")
		h.Del("X-Powered-By")
		h.Set("X-Backend-Server", "nginx/1.18.0 (Ubuntu)")
		c.Next()
	}
}

// Honeypot answers decoy paths with a generic 404 so scanners cannot tell
// the path is special-cased; the hit is logged as a MEDIUM incident.
func (p *Pipeline) Honeypot() gin.HandlerFunc {
	return func(c *gin.Context) {
		decoy, hit := catalog.MatchHoneypotPath(c.Request.URL.Path)
		if !hit {
			c.Next()
			return
		}

		metrics.IncBlocked("honeypot")
		id := p.incidents.Record(incident.LevelMedium, "HONEYPOT_TRIGGERED", map[string]any{
			"ip":        c.ClientIP(),
			"path":      c.Request.URL.Path,
			"decoy":     decoy,
			"userAgent": c.Request.UserAgent(),
		})

		body := pages.Render(pages.KindHoneypot, pages.Details{
			IncidentID: id,
			IP:         pages.NormalizeIP(c.ClientIP()),
			Path:       c.Request.URL.Path,
		})
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusNotFound, body)
		c.Abort()
	}
}

// MaliciousContent scans the full decoded URL plus every string leaf of the
// query and body trees against the pattern catalog. First match terminates
// the request with a 403.
func (p *Pipeline) MaliciousContent() gin.HandlerFunc {
	return func(c *gin.Context) {
		fullURL := decodedURL(c)

		match, found := catalog.ScanURL(strings.ToLower(fullURL))
		if !found {
			match, found = catalog.ScanTree(queryTree(c), "query")
		}
		if !found {
			match, found = catalog.ScanTree(bodyTree(c), "body")
		}
		if !found {
			c.Next()
			return
		}

		level := incident.LevelCritical
		if match.Severity == catalog.SeverityHigh {
			level = incident.LevelHigh
		}
		metrics.IncBlocked("malicious")
		id := p.incidents.Record(level, match.Category.IncidentCategory(), map[string]any{
			"ip":        c.ClientIP(),
			"path":      c.Request.URL.Path,
			"context":   match.Context,
			"pattern":   match.Pattern,
			"data":      match.Value,
			"userAgent": c.Request.UserAgent(),
		})
		p.history.Record(c.ClientIP(), time.Now())

		c.Header("X-Security-Incident-ID", id)
		c.Header("X-Security-Level", "High")

		if pages.PrefersHTML(c.GetHeader("Accept")) {
			kind := pages.KindInjection
			d := pages.Details{
				IncidentID: id,
				IP:         pages.NormalizeIP(c.ClientIP()),
				Pattern:    match.Pattern,
			}
			if match.Context == "url" {
				kind = pages.KindMaliciousURL
				d.URL = fullURL
			}
			c.Header("Content-Type", "text/html; charset=utf-8")
			c.String(http.StatusForbidden, pages.Render(kind, d))
		} else {
			c.JSON(http.StatusForbidden, gin.H{
				"error":      "Solicitud bloqueada - Patrón de inyección detectado",
				"incidentId": id,
			})
		}
		c.Abort()
	}
}

// RateLimit resolves the request into a quota bucket and consumes one unit.
// Browser clients (and the OAuth entry point, which always redirects through
// a browser) are redirected to the dedicated error page; API clients get a
// 429 JSON payload.
func (p *Pipeline) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		bucketName, limited := p.limits.ResolveBucket(c.Request.URL.Path)
		if !limited {
			c.Next()
			return
		}

		res := p.limits.CheckAndConsume(bucketName, c.ClientIP())
		if res.Allowed {
			c.Next()
			return
		}

		metrics.IncRateLimited()
		id := p.incidents.Record(incident.LevelMedium, "RATE_LIMIT_EXCEEDED", map[string]any{
			"ip":        c.ClientIP(),
			"type":      res.Bucket,
			"path":      c.Request.URL.Path,
			"method":    c.Request.Method,
			"userAgent": c.Request.UserAgent(),
		})

		c.Header("Retry-After", strconv.Itoa(res.RetryAfterSeconds))

		if pages.PrefersHTML(c.GetHeader("Accept")) || strings.Contains(c.Request.URL.Path, "/auth/google") {
			c.Redirect(http.StatusFound, "/error-429?retryAfter="+url.QueryEscape(res.RetryHint))
			c.Abort()
			return
		}

		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":      "Límite de solicitudes excedido",
			"message":    "Demasiadas solicitudes desde esta IP",
			"retryAfter": res.RetryHint,
			"incidentId": id,
		})
		c.Abort()
	}
}

// ForbiddenRoutes blocks paths resolving to sensitive files with a 403 page
// that exposes the normalized client IP, plus informational block headers.
func (p *Pipeline) ForbiddenRoutes() gin.HandlerFunc {
	return func(c *gin.Context) {
		entry, hit := catalog.MatchForbidden(c.Request.URL.Path)
		if !hit {
			c.Next()
			return
		}

		displayIP := pages.NormalizeIP(c.ClientIP())
		metrics.IncBlocked("forbidden")
		id := p.incidents.Record(incident.LevelHigh, "FORBIDDEN_ROUTE_ACCESS", map[string]any{
			"ip":        displayIP,
			"path":      c.Request.URL.Path,
			"entry":     entry,
			"method":    c.Request.Method,
			"userAgent": c.Request.UserAgent(),
			"referer":   c.Request.Referer(),
			"origin":    c.GetHeader("Origin"),
		})

		c.Header("X-Security-Incident", "Forbidden-Route-Access")
		c.Header("X-Blocked-Path", c.Request.URL.Path)
		c.Header("X-Block-Reason", "Sensitive-Resource")
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusForbidden, pages.Render(pages.KindForbidden, pages.Details{
			IncidentID: id,
			IP:         displayIP,
			Path:       c.Request.URL.Path,
		}))
		c.Abort()
	}
}

// ThreatIntel escalates repeat offenders whose reputation score crosses the
// block threshold. Lookup failures fail open and are handled inside the
// cache; this middleware only ever sees a definitive escalation.
func (p *Pipeline) ThreatIntel() gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, escalate := p.intel.Check(c.Request.Context(), c.ClientIP())
		if !escalate {
			c.Next()
			return
		}

		metrics.IncBlocked("threat_intel")
		id := p.incidents.Record(incident.LevelHigh, "HIGH_RISK_IP_BLOCKED", map[string]any{
			"ip":                   c.ClientIP(),
			"abuseConfidenceScore": rec.AbuseConfidenceScore,
			"totalReports":         rec.TotalReports,
			"userAgent":            c.Request.UserAgent(),
		})

		c.JSON(http.StatusForbidden, gin.H{
			"error":      "Acceso bloqueado - IP identificada como maliciosa",
			"incidentId": id,
			"threatIntel": gin.H{
				"source":     "AbuseIPDB",
				"confidence": rec.AbuseConfidenceScore,
				"reports":    rec.TotalReports,
			},
		})
		c.Abort()
	}
}

// decodedURL returns the request URI with percent-encoding resolved, so
// encoded payloads cannot slip past the URL patterns.
func decodedURL(c *gin.Context) string {
	raw := c.Request.URL.RequestURI()
	if dec, err := url.QueryUnescape(raw); err == nil {
		return dec
	}
	return raw
}

func queryTree(c *gin.Context) any {
	return map[string][]string(c.Request.URL.Query())
}

// bodyTree decodes JSON and form bodies into a walkable tree, restoring the
// body so downstream handlers can still bind it. Unparseable text is scanned
// as a single leaf; binary payloads are skipped.
func bodyTree(c *gin.Context) any {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	ct := c.ContentType()
	if !strings.Contains(ct, "json") && !strings.Contains(ct, "x-www-form-urlencoded") {
		return nil
	}

	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxScanBytes))
	c.Request.Body.Close()
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return nil
	}

	if strings.Contains(ct, "json") {
		var tree any
		if json.Unmarshal(raw, &tree) == nil {
			return tree
		}
		return string(raw)
	}

	if vals, err := url.ParseQuery(string(raw)); err == nil {
		return map[string][]string(vals)
	}
	return string(raw)
}
